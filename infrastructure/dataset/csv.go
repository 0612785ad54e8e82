// Package dataset reads and writes the semicolon-delimited movie CSV files
// that flow between the enrich, train, and serve stages.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cinemind/cinemind/domain/movie"
)

// Stage file names, relative to the data directory.
const (
	RawFile       = "all_movies.csv"
	EnrichedFile  = "all_movies_enriched.csv"
	ClusteredFile = "all_movies_clustered.csv"
	ModelFile     = "kmeans_model.json"
)

// Stage identifies which pipeline stage a CSV file belongs to, detected from
// its header columns.
type Stage int

const (
	StageRaw Stage = iota
	StageEnriched
	StageClustered
)

func (s Stage) String() string {
	switch s {
	case StageRaw:
		return "raw"
	case StageEnriched:
		return "enriched"
	case StageClustered:
		return "clustered"
	default:
		return "unknown"
	}
}

const (
	colTitlePT  = "title_pt"
	colTitleEN  = "title_en"
	colGenre    = "genre"
	colYear     = "year"
	colRating   = "rating"
	colSynopsis = "sinopse"
	colEnriched = "sinopse_enriched"
	colCluster  = "Cluster"
)

// Some source lists prefix the English title with its chart position, as in
// "1. The Shawshank Redemption". The prefix is noise for lookups.
var rankPrefix = regexp.MustCompile(`^\d+\.\s*`)

// Load reads a stage CSV file. The file's stage is detected from its header:
// a Cluster column means clustered, a sinopse_enriched column without it
// means enriched, neither means raw. Movie IDs are the zero-based row order,
// which is stable because every stage preserves row order.
func Load(path string) ([]movie.Movie, Stage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("dataset %s is empty", path)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colTitlePT, colTitleEN, colGenre, colYear, colRating, colSynopsis} {
		if _, ok := index[required]; !ok {
			return nil, 0, fmt.Errorf("dataset %s is missing column %q", path, required)
		}
	}

	stage := StageRaw
	if _, ok := index[colEnriched]; ok {
		stage = StageEnriched
	}
	if _, ok := index[colCluster]; ok {
		stage = StageClustered
	}

	movies := make([]movie.Movie, 0, len(records)-1)
	for rowNum, record := range records[1:] {
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		year, err := strconv.Atoi(field(colYear))
		if err != nil {
			return nil, 0, fmt.Errorf("dataset %s row %d: invalid year %q", path, rowNum+2, field(colYear))
		}
		rating, err := strconv.ParseFloat(strings.ReplaceAll(field(colRating), ",", "."), 64)
		if err != nil {
			return nil, 0, fmt.Errorf("dataset %s row %d: invalid rating %q", path, rowNum+2, field(colRating))
		}

		m := movie.Movie{
			ID:       rowNum,
			TitlePT:  field(colTitlePT),
			TitleEN:  rankPrefix.ReplaceAllString(field(colTitleEN), ""),
			Genre:    field(colGenre),
			Year:     year,
			Rating:   rating,
			Synopsis: field(colSynopsis),
			Cluster:  movie.UnlabeledCluster,
		}
		if stage >= StageEnriched {
			m.SynopsisEnriched = field(colEnriched)
		}
		if stage == StageClustered {
			label, err := strconv.Atoi(field(colCluster))
			if err != nil {
				return nil, 0, fmt.Errorf("dataset %s row %d: invalid cluster label %q", path, rowNum+2, field(colCluster))
			}
			m.Cluster = label
		}
		movies = append(movies, m)
	}

	return movies, stage, nil
}

// Save writes movies as a stage CSV file, creating parent directories as
// needed. Rows are written in slice order so IDs survive a load round trip.
func Save(path string, movies []movie.Movie, stage Stage) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = ';'

	header := []string{colTitlePT, colTitleEN, colGenre, colYear, colRating, colSynopsis}
	if stage >= StageEnriched {
		header = append(header, colEnriched)
	}
	if stage == StageClustered {
		header = append(header, colCluster)
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write dataset header: %w", err)
	}

	for _, m := range movies {
		record := []string{
			m.TitlePT,
			m.TitleEN,
			m.Genre,
			strconv.Itoa(m.Year),
			strconv.FormatFloat(m.Rating, 'f', -1, 64),
			m.Synopsis,
		}
		if stage >= StageEnriched {
			record = append(record, m.SynopsisEnriched)
		}
		if stage == StageClustered {
			record = append(record, strconv.Itoa(m.Cluster))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write dataset row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush dataset: %w", err)
	}
	return nil
}

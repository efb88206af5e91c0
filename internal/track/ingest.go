package track

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// keyCommentPattern and energyCommentPattern match the "8A - Energy 6"
// convention some libraries
// stash in the ID3/Vorbis comment field when no dedicated key/energy tags
// exist.
var (
	keyCommentPattern    = regexp.MustCompile(`(\d{1,2}[AB])\s*-\s*Energy`)
	energyCommentPattern = regexp.MustCompile(`Energy\s+(\d+)`)
)

// bpmTagNames lists the custom tag keys different taggers use for BPM;
// checked in order until one parses to a positive value.
var bpmTagNames = []string{"BPM", "TBPM", "bpm", "tempo"}

// FromFile builds a Track by reading ID3/Vorbis-comment metadata directly
// off a local audio file. This is the "library match" provenance: a track
// discovered by scanning a folder rather than returned by a catalog API.
// Duration is not available from tags alone and is left at 0; callers that
// need it should run the file through the analyzer (C3) instead of, or in
// addition to, this path.
func FromFile(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, fmt.Errorf("track: open %s: %w", path, err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return Track{}, fmt.Errorf("track: read tags from %s: %w", path, err)
	}

	title := meta.Title()
	if title == "" {
		title = filepath.Base(path)
	}

	artists := []string{}
	if a := meta.Artist(); a != "" {
		artists = append(artists, a)
	}
	if aa := meta.AlbumArtist(); aa != "" && aa != meta.Artist() {
		artists = append(artists, aa)
	}

	comment := meta.Comment()
	bpm := bpmFromRawTags(meta.Raw())
	key := extractKeyFromComment(comment)
	energy := extractEnergyFromComment(comment)

	t := Track{
		ID:         uuid.NewString(),
		SourceURI:  path,
		Title:      title,
		Artists:    artists,
		BPM:        bpm,
		CamelotKey: key,
		Energy:     UnknownEnergy,
		Popularity: UnknownPopularity,
		Genre:      meta.Genre(),
		Source:     SourceLibraryMatch,
	}
	if energy > 0 {
		t.Energy = float64(energy) / 10.0
	}
	return t, nil
}

func bpmFromRawTags(raw map[string]interface{}) float64 {
	for _, key := range bpmTagNames {
		val, ok := raw[key]
		if !ok {
			continue
		}
		var bpm float64
		switch v := val.(type) {
		case string:
			bpm, _ = strconv.ParseFloat(v, 64)
		case int:
			bpm = float64(v)
		case float64:
			bpm = v
		}
		if bpm > 0 {
			return bpm
		}
	}
	return 0
}

func extractKeyFromComment(comment string) string {
	m := keyCommentPattern.FindStringSubmatch(comment)
	if len(m) > 1 {
		return m[1]
	}
	return ""
}

func extractEnergyFromComment(comment string) int {
	m := energyCommentPattern.FindStringSubmatch(comment)
	if len(m) > 1 {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return v
		}
	}
	return 0
}

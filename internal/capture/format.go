package capture

import (
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// processingStatusRaw marks a freshly ingested capture in the header.
	processingStatusRaw = "raw"

	idLayout   = "20060102_150405"
	dateLayout = "2006-01-02"
)

// frontmatter is the capture document header. Field order here is the wire
// order: yaml.v3 emits struct fields in declaration order, and the header
// must be byte-reproducible for round-trip compatibility with prior captures.
type frontmatter struct {
	Timestamp        string         `yaml:"timestamp"`
	ID               string         `yaml:"id"`
	Aliases          []string       `yaml:"aliases"`
	CaptureID        string         `yaml:"capture_id"`
	Modalities       []string       `yaml:"modalities"`
	Context          []string       `yaml:"context"`
	Sources          []string       `yaml:"sources"`
	Tags             []string       `yaml:"tags"`
	Location         any            `yaml:"location"`
	Metadata         map[string]any `yaml:"metadata"`
	ProcessingStatus string         `yaml:"processing_status"`
	CreatedDate      string         `yaml:"created_date"`
	LastEditedDate   string         `yaml:"last_edited_date"`
}

// Format renders a capture into its canonical on-disk document. It is pure:
// given the same capture and capture directory it always produces the same
// text. It returns the document, the effective timestamp, and the capture ID
// (derived from the timestamp at second precision when not supplied).
func Format(c Capture, captureDir string) (string, time.Time, string) {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC().Truncate(time.Second)
	}

	id := c.CaptureID
	if id == "" {
		id = ts.UTC().Format(idLayout)
	}

	modalities := c.Modalities
	if len(modalities) == 0 {
		modalities = []string{"text"}
	}

	createdDate := c.CreatedDate
	if createdDate == "" {
		createdDate = ts.Format(dateLayout)
	}
	lastEditedDate := c.LastEditedDate
	if lastEditedDate == "" {
		lastEditedDate = ts.Format(dateLayout)
	}

	metadata := c.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	fm := frontmatter{
		Timestamp:        ts.Format(time.RFC3339),
		ID:               id,
		Aliases:          []string{id},
		CaptureID:        id,
		Modalities:       modalities,
		Context:          emptyIfNil(c.Context),
		Sources:          emptyIfNil(c.Sources),
		Tags:             emptyIfNil(c.Tags),
		Location:         c.Location,
		Metadata:         metadata,
		ProcessingStatus: processingStatusRaw,
		CreatedDate:      createdDate,
		LastEditedDate:   lastEditedDate,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		// Opaque pass-through values are the only thing that can sink the
		// encoder; drop them rather than fail the write path.
		fm.Location = nil
		fm.Metadata = map[string]any{}
		header, _ = yaml.Marshal(&fm)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n")
	for _, section := range bodySections(c, captureDir) {
		b.WriteString(section)
	}
	return b.String(), ts, id
}

// bodySections builds the ordered body: Content, Clipboard, then one section
// per media file in submission order.
func bodySections(c Capture, captureDir string) []string {
	var sections []string

	if strings.TrimSpace(c.Content) != "" {
		sections = append(sections, "## Content\n"+c.Content+"\n")
	}

	if clip := c.Clipboard; strings.TrimSpace(clip) != "" {
		if strings.HasPrefix(clip, "```") || strings.Contains(clip, "\n") {
			sections = append(sections, "## Clipboard\n"+clip+"\n")
		} else {
			sections = append(sections, "## Clipboard\n```\n"+clip+"\n```\n")
		}
	}

	for _, m := range c.MediaFiles {
		rel := relativeMediaPath(m.Path, captureDir)
		switch m.Type {
		case MediaScreenshot:
			sections = append(sections, "## Screenshot\n"+m.Path+"\n")
		case MediaAudio:
			sections = append(sections, "## Audio\n[Audio Recording]("+rel+")\n")
		case MediaImage:
			sections = append(sections, "## Image\n![Image]("+rel+")\n")
		default:
			sections = append(sections, "## Attachment\n[Attachment]("+rel+")\n")
		}
	}

	return sections
}

// relativeMediaPath rewrites an absolute media path relative to the capture
// directory so links survive vault relocation. Paths that cannot be made
// relative are emitted unchanged.
func relativeMediaPath(path, captureDir string) string {
	rel, err := filepath.Rel(captureDir, path)
	if err != nil {
		return path
	}
	return rel
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

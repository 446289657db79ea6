package capture

import (
	"strings"
	"testing"
	"time"
)

func testTime() time.Time {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestFormat_HeaderFieldOrder(t *testing.T) {
	doc, _, _ := Format(Capture{Content: "hello", Timestamp: testTime()}, "/vault/capture")

	order := []string{
		"timestamp:",
		"id:",
		"aliases:",
		"capture_id:",
		"modalities:",
		"context:",
		"sources:",
		"tags:",
		"location:",
		"metadata:",
		"processing_status:",
		"created_date:",
		"last_edited_date:",
	}
	pos := -1
	for _, key := range order {
		idx := strings.Index(doc, "\n"+key)
		if idx < 0 {
			t.Fatalf("header missing %q:\n%s", key, doc)
		}
		if idx < pos {
			t.Fatalf("header key %q out of order:\n%s", key, doc)
		}
		pos = idx
	}
}

func TestFormat_HeaderDelimiters(t *testing.T) {
	// Empty metadata and no location must not leak extra document markers.
	doc, _, _ := Format(Capture{Content: "x", Timestamp: testTime()}, "/vault/capture")

	count := 0
	for _, line := range strings.Split(doc, "\n") {
		if line == "---" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("document has %d --- lines, want 2:\n%s", count, doc)
	}
	if !strings.HasPrefix(doc, "---\n") {
		t.Errorf("document does not open with the header marker:\n%s", doc)
	}
}

func TestFormat_Defaults(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Second)
	doc, ts, id := Format(Capture{Content: "x"}, "/vault/capture")
	after := time.Now().UTC()

	if ts.Before(before) || ts.After(after) {
		t.Errorf("effective timestamp %v outside [%v, %v]", ts, before, after)
	}
	if ts.Nanosecond() != 0 {
		t.Errorf("effective timestamp carries sub-second precision: %v", ts)
	}
	if want := ts.UTC().Format("20060102_150405"); id != want {
		t.Errorf("capture ID = %q, want %q", id, want)
	}
	if !strings.Contains(doc, "modalities:\n    - text\n") {
		t.Errorf("missing default text modality:\n%s", doc)
	}
	if !strings.Contains(doc, "processing_status: raw") {
		t.Errorf("missing processing_status:\n%s", doc)
	}
	if !strings.Contains(doc, "created_date: \""+ts.Format("2006-01-02")+"\"") &&
		!strings.Contains(doc, "created_date: "+ts.Format("2006-01-02")) {
		t.Errorf("missing created_date:\n%s", doc)
	}
}

func TestFormat_SuppliedIdentityPreserved(t *testing.T) {
	c := Capture{
		CaptureID: "20240101_000000",
		Timestamp: testTime(),
		Content:   "x",
	}
	doc, ts, id := Format(c, "/vault/capture")

	if id != "20240101_000000" {
		t.Errorf("capture ID = %q, want supplied ID", id)
	}
	if !ts.Equal(testTime()) {
		t.Errorf("timestamp = %v, want supplied timestamp", ts)
	}
	if !strings.Contains(doc, "capture_id: 20240101_000000") &&
		!strings.Contains(doc, "capture_id: \"20240101_000000\"") {
		t.Errorf("supplied capture_id absent from header:\n%s", doc)
	}
}

func TestFormat_Deterministic(t *testing.T) {
	c := Capture{
		Timestamp: testTime(),
		Content:   "same",
		Tags:      []string{"a", "b"},
		Context:   []string{"reading"},
		Metadata:  map[string]any{"k": "v"},
	}
	d1, _, _ := Format(c, "/vault/capture")
	d2, _, _ := Format(c, "/vault/capture")
	if d1 != d2 {
		t.Error("Format is not deterministic for identical input")
	}
}

func TestFormat_EmptySequencesRenderEmpty(t *testing.T) {
	doc, _, _ := Format(Capture{Content: "x", Timestamp: testTime()}, "/vault/capture")

	for _, want := range []string{"context: []", "sources: []", "tags: []", "metadata: {}", "location: null"} {
		if !strings.Contains(doc, want) {
			t.Errorf("header missing %q:\n%s", want, doc)
		}
	}
}

func TestFormat_ContentSection(t *testing.T) {
	doc, _, _ := Format(Capture{Content: "line one\nline two", Timestamp: testTime()}, "/vault/capture")
	if !strings.Contains(doc, "## Content\nline one\nline two\n") {
		t.Errorf("content section wrong:\n%s", doc)
	}

	// Blank content produces no section at all.
	doc, _, _ = Format(Capture{Content: "   ", Clipboard: "x", Timestamp: testTime()}, "/vault/capture")
	if strings.Contains(doc, "## Content") {
		t.Errorf("blank content still rendered a section:\n%s", doc)
	}
}

func TestFormat_ClipboardFencing(t *testing.T) {
	// Single-line plain text gets fenced.
	doc, _, _ := Format(Capture{Clipboard: "one liner", Timestamp: testTime()}, "/vault/capture")
	if !strings.Contains(doc, "## Clipboard\n```\none liner\n```\n") {
		t.Errorf("single-line clipboard not fenced:\n%s", doc)
	}

	// Multiline content is emitted verbatim.
	doc, _, _ = Format(Capture{Clipboard: "a\nb", Timestamp: testTime()}, "/vault/capture")
	if !strings.Contains(doc, "## Clipboard\na\nb\n") {
		t.Errorf("multiline clipboard altered:\n%s", doc)
	}

	// Already-fenced content is not double wrapped.
	fenced := "```go\nfmt.Println()\n```"
	doc, _, _ = Format(Capture{Clipboard: fenced, Timestamp: testTime()}, "/vault/capture")
	if !strings.Contains(doc, "## Clipboard\n"+fenced+"\n") {
		t.Errorf("pre-fenced clipboard altered:\n%s", doc)
	}
	if strings.Contains(doc, "```\n```go") {
		t.Errorf("pre-fenced clipboard double wrapped:\n%s", doc)
	}
}

func TestFormat_MediaSections(t *testing.T) {
	c := Capture{
		Timestamp: testTime(),
		MediaFiles: []MediaFile{
			{Path: "/vault/capture/media/shot.png", Type: MediaScreenshot},
			{Path: "/vault/capture/media/memo.ogg", Type: MediaAudio},
			{Path: "/vault/capture/media/pic.jpg", Type: MediaImage},
			{Path: "/vault/capture/media/doc.pdf", Type: "document"},
		},
	}
	doc, _, _ := Format(c, "/vault/capture")

	// Screenshots keep the absolute path; everything else links relative to
	// the capture directory.
	if !strings.Contains(doc, "## Screenshot\n/vault/capture/media/shot.png\n") {
		t.Errorf("screenshot section wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "## Audio\n[Audio Recording](media/memo.ogg)\n") {
		t.Errorf("audio section wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "## Image\n![Image](media/pic.jpg)\n") {
		t.Errorf("image section wrong:\n%s", doc)
	}
	if !strings.Contains(doc, "## Attachment\n[Attachment](media/doc.pdf)\n") {
		t.Errorf("attachment section wrong:\n%s", doc)
	}

	// Sections follow submission order.
	order := []string{"## Screenshot", "## Audio", "## Image", "## Attachment"}
	pos := -1
	for _, h := range order {
		idx := strings.Index(doc, h)
		if idx < pos {
			t.Fatalf("media sections out of order:\n%s", doc)
		}
		pos = idx
	}
}

func TestFormat_MediaPathOutsideVault(t *testing.T) {
	c := Capture{
		Timestamp: testTime(),
		MediaFiles: []MediaFile{
			{Path: "relative/odd.bin", Type: "document"},
		},
	}
	doc, _, _ := Format(c, "/vault/capture")
	// Paths that cannot be made relative are emitted unchanged.
	if !strings.Contains(doc, "[Attachment](relative/odd.bin)") {
		t.Errorf("unrelatable media path altered:\n%s", doc)
	}
}

func TestFormat_UnencodableOpaqueFieldsDropped(t *testing.T) {
	c := Capture{
		Timestamp: testTime(),
		Content:   "x",
		Location:  map[string]any{"bad": func() {}},
	}
	doc, _, _ := Format(c, "/vault/capture")
	if !strings.Contains(doc, "location: null") {
		t.Errorf("unencodable location not dropped:\n%s", doc)
	}
	if !strings.Contains(doc, "## Content\nx\n") {
		t.Errorf("body lost while recovering from encode failure:\n%s", doc)
	}
}

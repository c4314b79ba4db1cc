package rules

import (
	"testing"

	"github.com/solarplanninganalytics/docket/internal/pdftext"
)

func TestFindCandidates(t *testing.T) {
	pages := []pdftext.Page{
		{PageNumber: 1, Text: "   \n\t"},
		{PageNumber: 2, Text: "minutes of the budget work session"},
		{PageNumber: 3, Text: "Conditional   Use\tPermit application for a solar facility"},
		{PageNumber: 4, Text: "discussion of the solarium addition"},
		{PageNumber: 5, Text: "2232 review of the proposed substation"},
	}

	blocks := FindCandidates(pages)
	if len(blocks) != 2 {
		t.Fatalf("got %d candidate blocks, want 2: %+v", len(blocks), blocks)
	}
	if blocks[0].Page != 3 || blocks[1].Page != 5 {
		t.Errorf("candidate pages = %d, %d, want 3, 5", blocks[0].Page, blocks[1].Page)
	}
	// runs of spaces and tabs collapse to a single space
	if want := "Conditional Use Permit application for a solar facility"; blocks[0].Text != want {
		t.Errorf("normalized text = %q, want %q", blocks[0].Text, want)
	}
}

func TestFindCandidatesEmpty(t *testing.T) {
	if blocks := FindCandidates(nil); blocks != nil {
		t.Errorf("expected no blocks for no pages, got %+v", blocks)
	}
}

func TestSplitJoinPagesRoundTrip(t *testing.T) {
	text := "first page\fsecond page\f\ffourth page"

	pages := SplitPages(text)
	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	for i, p := range pages {
		if p.PageNumber != i+1 {
			t.Errorf("page %d numbered %d", i, p.PageNumber)
		}
	}
	if pages[2].Text != "" {
		t.Errorf("blank page slot not preserved: %q", pages[2].Text)
	}

	if got := JoinPages(pages); got != text {
		t.Errorf("JoinPages(SplitPages(text)) = %q, want %q", got, text)
	}
}

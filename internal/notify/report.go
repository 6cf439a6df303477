package notify

import (
	_ "embed"
	"fmt"

	"autosite/internal/template"
	"autosite/internal/types"
	"autosite/internal/utils"
)

//go:embed templates/notify.md.tmpl
var defaultTemplate string

// Report is everything the notification digest shows about one run.
type Report struct {
	SiteURL       string
	Topic         types.Topic
	RealCount     int
	FallbackCount int
	Items         []types.DiscoveryItem
}

// Draft is a ready-to-paste reply pointing the author of URL at the new site.
type Draft struct {
	URL  string
	Lang Language
	Text string
}

type reportView struct {
	Report
	Drafts []Draft
}

// ReplyDraft picks the reply wording from the language of the item's title.
func ReplyDraft(item types.DiscoveryItem, siteURL string) Draft {
	lang := DetectLanguage(item.Title)
	var text string
	switch lang {
	case English:
		text = fmt.Sprintf("I found a page that tackles this exact family of issues (with steps + a small tool):\n%s\nIf it helps, skim the 1-minute conclusion first.", siteURL)
	default:
		text = fmt.Sprintf("同じ系統の困りごとをまとめて解決するページを作りました（読み物＋ミニツール）。\n%s\nまずは「1分で分かる対処方針」だけ見るのが早いです。", siteURL)
	}
	return Draft{URL: item.URL, Lang: lang, Text: text}
}

type Renderer struct {
	tmpl *template.Template
}

// NewRenderer compiles the digest template at path, or the built-in one when
// path is empty.
func NewRenderer(path string) (*Renderer, error) {
	tmpl, err := template.Load(path, defaultTemplate, nil)
	if err != nil {
		return nil, types.NewConfigError("notify template", err.Error())
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) Render(report Report) (string, error) {
	view := reportView{Report: report, Drafts: make([]Draft, 0, len(report.Items))}
	for _, item := range report.Items {
		view.Drafts = append(view.Drafts, ReplyDraft(item, report.SiteURL))
	}
	return r.tmpl.Execute(view)
}

// WriteReport replaces the report file at path with text.
func WriteReport(path, text string) error {
	if err := utils.WriteFileAtomic(path, []byte(text), 0o644); err != nil {
		return types.NewIOError("write notification", path, err)
	}
	return nil
}

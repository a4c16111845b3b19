package template

// SectionKind classifies how a template section participates in drafting.
type SectionKind string

const (
	KindFill      SectionKind = "fill"
	KindSkip      SectionKind = "skip"
	KindValidator SectionKind = "validator"
)

// Format identifies the physical template format behind the shared marker semantic.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// Section is one addressable unit of a parsed template.
//
// BodyStart and BodyEnd delimit the section body in format-specific units:
// byte offsets into the source text for markdown, block indices into the
// document's block sequence for HTML. The range is bounded above by the next
// heading of any kind or the end of the document.
type Section struct {
	ID             string
	Title          string
	Kind           SectionKind
	MarkerText     string
	HeadingIndex   int
	BodyStart      int
	BodyEnd        int
	BodyText       string
	CheckboxTokens []string
}

// Parsed is the full result of one template parse pass.
type Parsed struct {
	SourcePath   string
	Format       Format
	Stem         string
	Sections     []Section
	ParserErrors []string
}

// FillSections returns the machine-generatable sections in template order.
func (p *Parsed) FillSections() []Section {
	out := make([]Section, 0, len(p.Sections))
	for _, s := range p.Sections {
		if s.Kind == KindFill {
			out = append(out, s)
		}
	}
	return out
}

// SectionByID returns the section with the given id, if present.
func (p *Parsed) SectionByID(id string) (Section, bool) {
	for _, s := range p.Sections {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// ReadError reports a malformed or unreadable package. It is terminal
// for the upload: there is nothing to retry.
type ReadError struct {
	Reason string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("read docx: %s: %v", e.Reason, e.Err)
	}
	return "read docx: " + e.Reason
}

func (e *ReadError) Unwrap() error { return e.Err }

// reader holds the package parts while the public model is built.
type reader struct {
	zr           *zip.Reader
	styleNames   map[string]string // styleId -> display name
	rels         map[string]relationshipXML
	numFmt       map[string]map[int]string // numId -> ilvl -> numFmt
	defaultMIME  map[string]string         // extension -> content type
	overrideMIME map[string]string         // part name -> content type
}

// Read parses document bytes into the block model.
func Read(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ReadError{Reason: "not a zip package", Err: err}
	}

	r := &reader{
		zr:           zr,
		styleNames:   make(map[string]string),
		rels:         make(map[string]relationshipXML),
		numFmt:       make(map[string]map[int]string),
		defaultMIME:  make(map[string]string),
		overrideMIME: make(map[string]string),
	}

	docData, err := r.part("word/document.xml")
	if err != nil {
		return nil, &ReadError{Reason: "missing word/document.xml", Err: err}
	}

	var docXML documentXML
	if err := xml.Unmarshal(docData, &docXML); err != nil {
		return nil, &ReadError{Reason: "malformed document.xml", Err: err}
	}

	// Optional parts: the document is still usable without them.
	r.parseRelationships()
	r.parseStyles()
	r.parseNumbering()
	r.parseContentTypes()

	doc := &Document{}
	for _, el := range docXML.Body.Elements {
		doc.Blocks = append(doc.Blocks, r.block(el))
	}
	return doc, nil
}

func (r *reader) part(name string) ([]byte, error) {
	for _, f := range r.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("part not found: %s", name)
}

func (r *reader) parseRelationships() {
	data, err := r.part("word/_rels/document.xml.rels")
	if err != nil {
		return
	}
	var rels relationshipsXML
	if xml.Unmarshal(data, &rels) != nil {
		return
	}
	for _, rel := range rels.Relationships {
		r.rels[rel.ID] = rel
	}
}

func (r *reader) parseStyles() {
	data, err := r.part("word/styles.xml")
	if err != nil {
		return
	}
	var styles stylesXML
	if xml.Unmarshal(data, &styles) != nil {
		return
	}
	for _, s := range styles.Styles {
		if s.StyleID != "" && s.Name.Val != "" {
			r.styleNames[s.StyleID] = s.Name.Val
		}
	}
}

func (r *reader) parseNumbering() {
	data, err := r.part("word/numbering.xml")
	if err != nil {
		return
	}
	var num numberingXML
	if xml.Unmarshal(data, &num) != nil {
		return
	}
	abstract := make(map[string]map[int]string)
	for _, an := range num.AbstractNums {
		levels := make(map[int]string)
		for _, lvl := range an.Levels {
			if n, err := strconv.Atoi(lvl.ILvl); err == nil {
				levels[n] = lvl.NumFmt.Val
			}
		}
		abstract[an.AbstractNumID] = levels
	}
	for _, n := range num.Nums {
		if levels, ok := abstract[n.AbstractNumID.Val]; ok {
			r.numFmt[n.NumID] = levels
		}
	}
}

func (r *reader) parseContentTypes() {
	data, err := r.part("[Content_Types].xml")
	if err != nil {
		return
	}
	var ct contentTypesXML
	if xml.Unmarshal(data, &ct) != nil {
		return
	}
	for _, d := range ct.Defaults {
		r.defaultMIME[strings.ToLower(d.Extension)] = d.ContentType
	}
	for _, o := range ct.Overrides {
		r.overrideMIME[o.PartName] = o.ContentType
	}
}

func (r *reader) block(el bodyElemXML) Block {
	switch {
	case el.Paragraph != nil:
		return Block{Paragraph: r.paragraph(el.Paragraph)}
	case el.Table != nil:
		return Block{Table: r.table(el.Table)}
	}
	return Block{}
}

func (r *reader) table(t *tableXML) *Table {
	out := &Table{}
	for _, row := range t.Rows {
		var tr TableRow
		for _, cell := range row.Cells {
			var tc TableCell
			for _, el := range cell.Elements {
				tc.Blocks = append(tc.Blocks, r.block(el))
			}
			tr.Cells = append(tr.Cells, tc)
		}
		out.Rows = append(out.Rows, tr)
	}
	return out
}

func (r *reader) paragraph(p *paragraphXML) *Paragraph {
	out := &Paragraph{
		StyleID: p.Props.Style.Val,
		Ilvl:    -1,
	}
	out.StyleName = r.styleNames[out.StyleID]
	if out.StyleName == "" {
		out.StyleName = out.StyleID
	}

	if p.Props.NumPr.NumID.Val != "" && p.Props.NumPr.NumID.Val != "0" {
		out.NumID = p.Props.NumPr.NumID.Val
		if n, err := strconv.Atoi(p.Props.NumPr.ILvl.Val); err == nil {
			out.Ilvl = n
		}
		if levels, ok := r.numFmt[out.NumID]; ok {
			lvl := out.Ilvl
			if lvl < 0 {
				lvl = 0
			}
			out.NumFormat = levels[lvl]
		}
	}
	if n, err := strconv.Atoi(p.Props.Indent.Left); err == nil {
		out.IndentLeft = n
	}

	// Field-code hyperlink state. A HYPERLINK field spans several runs:
	// fldChar begin, instrText runs, fldChar separate, the visible runs,
	// fldChar end.
	var (
		inField  bool
		afterSep bool
		fieldURL string
		instr    strings.Builder
	)

	for _, child := range p.Children {
		switch {
		case child.Run != nil:
			run := Run{Href: ""}
			applyRunProps(&run, child.Run.Props)
			for _, f := range child.Run.Frags {
				switch f.Kind {
				case "fldChar":
					switch f.FldType {
					case "begin":
						inField, afterSep = true, false
						fieldURL = ""
						instr.Reset()
					case "separate":
						fieldURL = parseHyperlinkInstr(instr.String())
						afterSep = true
					case "end":
						inField, afterSep = false, false
						fieldURL = ""
					}
				case "instrText":
					if inField {
						instr.WriteString(f.Text)
					}
				default:
					run.Fragments = append(run.Fragments, r.fragment(f))
				}
			}
			if inField && afterSep {
				run.Href = fieldURL
			}
			if len(run.Fragments) > 0 {
				out.Runs = append(out.Runs, run)
			}

		case child.Hyperlink != nil:
			href := r.hyperlinkTarget(child.Hyperlink)
			for _, wr := range child.Hyperlink.Runs {
				run := Run{Href: href}
				applyRunProps(&run, wr.Props)
				for _, f := range wr.Frags {
					if f.Kind == "fldChar" || f.Kind == "instrText" {
						continue
					}
					run.Fragments = append(run.Fragments, r.fragment(f))
				}
				if len(run.Fragments) > 0 {
					out.Runs = append(out.Runs, run)
				}
			}

		case child.FldSimple != nil:
			href := parseHyperlinkInstr(child.FldSimple.Instr)
			for _, wr := range child.FldSimple.Runs {
				run := Run{Href: href}
				applyRunProps(&run, wr.Props)
				for _, f := range wr.Frags {
					if f.Kind == "fldChar" || f.Kind == "instrText" {
						continue
					}
					run.Fragments = append(run.Fragments, r.fragment(f))
				}
				if len(run.Fragments) > 0 {
					out.Runs = append(out.Runs, run)
				}
			}
		}
	}
	return out
}

func applyRunProps(run *Run, props runPropsXML) {
	run.Bold = props.Bold.isSet()
	run.Italic = props.Italic.isSet()
	run.Underline = props.Underline.Val != "" && props.Underline.Val != "none"
	if props.Color.Val != "" && !strings.EqualFold(props.Color.Val, "auto") {
		run.Color = props.Color.Val
	}
}

func (r *reader) fragment(f runFragXML) Fragment {
	switch f.Kind {
	case "text":
		return Fragment{Kind: FragText, Text: f.Text}
	case "break":
		return Fragment{Kind: FragBreak}
	case "tab":
		return Fragment{Kind: FragTab}
	case "drawing":
		return Fragment{Kind: FragImage, Image: r.image(f.Embed, f.ImgName)}
	}
	return Fragment{Kind: FragText}
}

// image resolves a blip relationship id to media bytes and MIME type.
// Returns nil when the relationship or the media part is missing.
func (r *reader) image(embed, name string) *Image {
	rel, ok := r.rels[embed]
	if !ok || rel.Target == "" {
		return nil
	}
	partName := rel.Target
	if !strings.HasPrefix(partName, "/") {
		partName = "word/" + partName
	} else {
		partName = strings.TrimPrefix(partName, "/")
	}
	partName = path.Clean(partName)

	data, err := r.part(partName)
	if err != nil {
		return nil
	}

	mime := r.overrideMIME["/"+partName]
	if mime == "" {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(partName)), ".")
		mime = r.defaultMIME[ext]
	}
	if name == "" {
		name = path.Base(partName)
	}
	return &Image{Name: name, Data: data, MIME: mime}
}

func (r *reader) hyperlinkTarget(h *hyperlinkXML) string {
	if h.ID != "" {
		if rel, ok := r.rels[h.ID]; ok && rel.Target != "" {
			return rel.Target
		}
	}
	if h.Anchor != "" {
		return "#" + h.Anchor
	}
	return ""
}

var hyperlinkInstrRe = regexp.MustCompile(`HYPERLINK\s+"([^"]+)"`)

// parseHyperlinkInstr extracts the target from a HYPERLINK field code.
func parseHyperlinkInstr(instr string) string {
	if m := hyperlinkInstrRe.FindStringSubmatch(instr); len(m) > 1 {
		return m[1]
	}
	// Unquoted form: HYPERLINK http://example.com \o "tip"
	fields := strings.Fields(instr)
	for i, f := range fields {
		if strings.EqualFold(f, "HYPERLINK") && i+1 < len(fields) {
			next := fields[i+1]
			if !strings.HasPrefix(next, "\\") {
				return strings.Trim(next, `"`)
			}
		}
	}
	return ""
}

package docx

import (
	"encoding/xml"
	"io"
)

// Wire structs for the WordprocessingML parts we read. Tag names match
// local element names only; the decoder ignores namespace prefixes.

// documentXML represents word/document.xml.
type documentXML struct {
	XMLName xml.Name `xml:"document"`
	Body    bodyXML  `xml:"body"`
}

// bodyXML holds the ordered block-level elements of the document body.
// xml.Unmarshal with plain slice fields would collect paragraphs and
// tables separately, losing their relative order, so decoding is manual.
type bodyXML struct {
	Elements []bodyElemXML
}

type bodyElemXML struct {
	Paragraph *paragraphXML
	Table     *tableXML
}

func (b *bodyXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElemXML{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				b.Elements = append(b.Elements, bodyElemXML{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// paragraphXML represents <w:p>. Child runs, hyperlinks and simple
// fields are kept in document order.
type paragraphXML struct {
	Props    paragraphPropsXML
	Children []paraChildXML
}

type paraChildXML struct {
	Run       *runXML
	Hyperlink *hyperlinkXML
	FldSimple *fldSimpleXML
}

func (p *paragraphXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				if err := d.DecodeElement(&p.Props, &t); err != nil {
					return err
				}
			case "r":
				var r runXML
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, paraChildXML{Run: &r})
			case "hyperlink":
				var h hyperlinkXML
				if err := d.DecodeElement(&h, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, paraChildXML{Hyperlink: &h})
			case "fldSimple":
				var f fldSimpleXML
				if err := d.DecodeElement(&f, &t); err != nil {
					return err
				}
				p.Children = append(p.Children, paraChildXML{FldSimple: &f})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// paragraphPropsXML represents <w:pPr>.
type paragraphPropsXML struct {
	Style  styleRefXML       `xml:"pStyle"`
	NumPr  numberingPropsXML `xml:"numPr"`
	Indent indentXML         `xml:"ind"`
}

type styleRefXML struct {
	Val string `xml:"val,attr"`
}

type numberingPropsXML struct {
	ILvl  valXML `xml:"ilvl"`
	NumID valXML `xml:"numId"`
}

type valXML struct {
	Val string `xml:"val,attr"`
}

type indentXML struct {
	Left      string `xml:"left,attr"`
	Hanging   string `xml:"hanging,attr"`
	FirstLine string `xml:"firstLine,attr"`
}

// runXML represents <w:r>. Text, breaks, tabs, drawings and field
// characters are kept interleaved in document order.
type runXML struct {
	Props runPropsXML
	Frags []runFragXML
}

type runFragXML struct {
	Kind    string // "text", "break", "tab", "drawing", "instrText", "fldChar"
	Text    string
	FldType string // fldChar: "begin", "separate", "end"
	Embed   string // drawing: blip relationship id
	ImgName string // drawing: docPr name (used for artifact filenames)
	PageBr  bool
}

func (r *runXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if err := d.DecodeElement(&r.Props, &t); err != nil {
					return err
				}
			case "t":
				var txt textXML
				if err := d.DecodeElement(&txt, &t); err != nil {
					return err
				}
				r.Frags = append(r.Frags, runFragXML{Kind: "text", Text: txt.Value})
			case "br":
				var br breakXML
				if err := d.DecodeElement(&br, &t); err != nil {
					return err
				}
				r.Frags = append(r.Frags, runFragXML{Kind: "break", PageBr: br.Type == "page"})
			case "tab":
				if err := d.Skip(); err != nil {
					return err
				}
				r.Frags = append(r.Frags, runFragXML{Kind: "tab"})
			case "drawing":
				var dr drawingXML
				if err := d.DecodeElement(&dr, &t); err != nil {
					return err
				}
				if embed, name := dr.blip(); embed != "" {
					r.Frags = append(r.Frags, runFragXML{Kind: "drawing", Embed: embed, ImgName: name})
				}
			case "instrText":
				var txt textXML
				if err := d.DecodeElement(&txt, &t); err != nil {
					return err
				}
				r.Frags = append(r.Frags, runFragXML{Kind: "instrText", Text: txt.Value})
			case "fldChar":
				var fc fldCharXML
				if err := d.DecodeElement(&fc, &t); err != nil {
					return err
				}
				r.Frags = append(r.Frags, runFragXML{Kind: "fldChar", FldType: fc.Type})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// runPropsXML represents <w:rPr>.
type runPropsXML struct {
	Bold      presenceXML  `xml:"b"`
	Italic    presenceXML  `xml:"i"`
	Underline underlineXML `xml:"u"`
	Color     valXML       `xml:"color"`
}

// presenceXML models toggle properties like <w:b/> where presence means
// true unless val says otherwise.
type presenceXML struct {
	XMLName xml.Name
	Val     string `xml:"val,attr"`
}

func (p presenceXML) isSet() bool {
	if p.XMLName.Local == "" {
		return false
	}
	return p.Val != "false" && p.Val != "0"
}

type underlineXML struct {
	Val string `xml:"val,attr"`
}

type textXML struct {
	Space string `xml:"space,attr"`
	Value string `xml:",chardata"`
}

type breakXML struct {
	Type string `xml:"type,attr"`
}

type fldCharXML struct {
	Type string `xml:"fldCharType,attr"`
}

// hyperlinkXML represents <w:hyperlink>, the relationship-based link form.
type hyperlinkXML struct {
	ID     string   `xml:"id,attr"`
	Anchor string   `xml:"anchor,attr"`
	Runs   []runXML `xml:"r"`
}

// fldSimpleXML represents <w:fldSimple>, the compact field-code form.
type fldSimpleXML struct {
	Instr string   `xml:"instr,attr"`
	Runs  []runXML `xml:"r"`
}

// drawingXML represents <w:drawing> with an inline or anchored picture.
type drawingXML struct {
	Inline *drawingContainerXML `xml:"inline"`
	Anchor *drawingContainerXML `xml:"anchor"`
}

type drawingContainerXML struct {
	DocPr docPrXML `xml:"docPr"`
	Blip  *blipXML `xml:"graphic>graphicData>pic>blipFill>blip"`
}

type docPrXML struct {
	Name string `xml:"name,attr"`
}

type blipXML struct {
	Embed string `xml:"embed,attr"`
}

func (d drawingXML) blip() (embed, name string) {
	c := d.Inline
	if c == nil {
		c = d.Anchor
	}
	if c == nil || c.Blip == nil {
		return "", ""
	}
	return c.Blip.Embed, c.DocPr.Name
}

// tableXML represents <w:tbl>.
type tableXML struct {
	Rows []tableRowXML `xml:"tr"`
}

type tableRowXML struct {
	Cells []tableCellXML `xml:"tc"`
}

// tableCellXML holds the ordered blocks inside a cell. Cells may nest
// paragraphs and tables, so decoding is manual like bodyXML.
type tableCellXML struct {
	Elements []bodyElemXML
}

func (c *tableCellXML) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				var p paragraphXML
				if err := d.DecodeElement(&p, &t); err != nil {
					return err
				}
				c.Elements = append(c.Elements, bodyElemXML{Paragraph: &p})
			case "tbl":
				var tbl tableXML
				if err := d.DecodeElement(&tbl, &t); err != nil {
					return err
				}
				c.Elements = append(c.Elements, bodyElemXML{Table: &tbl})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			if t.Name == start.Name {
				return nil
			}
		}
	}
}

// stylesXML represents word/styles.xml (names only; formatting comes
// from direct run properties).
type stylesXML struct {
	XMLName xml.Name      `xml:"styles"`
	Styles  []styleDefXML `xml:"style"`
}

type styleDefXML struct {
	Type    string `xml:"type,attr"`
	StyleID string `xml:"styleId,attr"`
	Name    valXML `xml:"name"`
}

// numberingXML represents word/numbering.xml.
type numberingXML struct {
	XMLName      xml.Name         `xml:"numbering"`
	AbstractNums []abstractNumXML `xml:"abstractNum"`
	Nums         []numXML         `xml:"num"`
}

type abstractNumXML struct {
	AbstractNumID string   `xml:"abstractNumId,attr"`
	Levels        []lvlXML `xml:"lvl"`
}

type lvlXML struct {
	ILvl   string `xml:"ilvl,attr"`
	NumFmt valXML `xml:"numFmt"`
}

type numXML struct {
	NumID         string `xml:"numId,attr"`
	AbstractNumID valXML `xml:"abstractNumId"`
}

// relationshipsXML represents word/_rels/document.xml.rels.
type relationshipsXML struct {
	XMLName       xml.Name          `xml:"Relationships"`
	Relationships []relationshipXML `xml:"Relationship"`
}

type relationshipXML struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

// contentTypesXML represents [Content_Types].xml.
type contentTypesXML struct {
	XMLName   xml.Name        `xml:"Types"`
	Defaults  []ctDefaultXML  `xml:"Default"`
	Overrides []ctOverrideXML `xml:"Override"`
}

type ctDefaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

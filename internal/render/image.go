package render

import (
	"bytes"
	"encoding/base64"
	"image"
	"path"
	"strings"

	// Register decoders so embedded image bytes can be validated
	// before being inlined.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ebrasseur/fichedoc/internal/docx"
	"github.com/ebrasseur/fichedoc/internal/htmlx"
)

// renderableMIME lists the embedded formats a browser can display
// inline. Everything else becomes a placeholder plus a download
// artifact.
var renderableMIME = map[string]bool{
	"image/png":      true,
	"image/jpeg":     true,
	"image/jpg":      true,
	"image/gif":      true,
	"image/webp":     true,
	"image/svg+xml":  true,
	"image/bmp":      true,
	"image/x-ms-bmp": true,
	"image/tiff":     true,
}

// extByMIME provides download filename extensions for the legacy
// vector formats Word embeds.
var extByMIME = map[string]string{
	"image/x-emf":              ".emf",
	"image/emf":                ".emf",
	"image/x-wmf":              ".wmf",
	"image/wmf":                ".wmf",
	"image/pict":               ".pict",
	"application/octet-stream": ".bin",
	"image/vnd.microsoft.icon": ".ico",
	"image/x-icon":             ".ico",
	"application/postscript":   ".eps",
	"image/x-portable-anymap":  ".pnm",
	"application/x-msmetafile": ".wmf",
	"image/tiff":               ".tiff",
	"image/png":                ".png",
	"image/jpeg":               ".jpg",
	"image/gif":                ".gif",
	"image/bmp":                ".bmp",
	"image/webp":               ".webp",
	"image/svg+xml":            ".svg",
}

// image renders one embedded picture: inline data URI when the format
// is browser-renderable and the bytes decode, a download placeholder
// when the format is not renderable, and an error placeholder when the
// bytes are unusable. A bad image never aborts the paragraph.
func (r *Renderer) image(img *docx.Image) *html.Node {
	if img == nil || len(img.Data) == 0 {
		r.log.Warn("embedded image unresolved, dropping with placeholder")
		return errorPlaceholder()
	}

	mime := strings.ToLower(img.MIME)
	if renderableMIME[mime] {
		if mime != "image/svg+xml" {
			if _, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
				r.log.Warn("embedded image bytes undecodable",
					"name", img.Name, "mime", mime, "error", err)
				return errorPlaceholder()
			}
		}
		n := htmlx.Element(atom.Img)
		htmlx.SetAttr(n, "src", "data:"+mime+";base64,"+base64.StdEncoding.EncodeToString(img.Data))
		if img.Name != "" {
			htmlx.SetAttr(n, "alt", img.Name)
		}
		return n
	}

	// Not renderable: register a download artifact and emit a marker.
	id := r.nextID()
	r.artifacts = append(r.artifacts, Artifact{
		ID:       id,
		Filename: artifactFilename(img.Name, mime, id),
		MIME:     img.MIME,
		Data:     img.Data,
	})
	span := htmlx.Element(atom.Span)
	htmlx.SetAttr(span, "class", "unsupported-image")
	htmlx.SetAttr(span, "data-artifact", id)
	span.AppendChild(htmlx.Text("[Image « " + displayName(img.Name, id) + " » à télécharger séparément]"))
	return span
}

func errorPlaceholder() *html.Node {
	span := htmlx.Element(atom.Span)
	htmlx.SetAttr(span, "class", "image-error")
	span.AppendChild(htmlx.Text("[image illisible]"))
	return span
}

// artifactFilename keeps the original base name when present and fixes
// up the extension from the declared MIME type.
func artifactFilename(name, mime, id string) string {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	if base == "" || base == "." {
		base = id
	}
	ext := extByMIME[mime]
	if ext == "" {
		ext = path.Ext(name)
	}
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

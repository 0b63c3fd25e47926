package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/epistle/letter"
	"github.com/ByLCY/epistle/renderer"
)

const placeholderStrokeWidth = 0.3

// Renderer draws letter documents via github.com/tdewolff/canvas.
// 同时实现 letter.Typesetter，为排版阶段提供文本测量与折行。
type Renderer struct {
	// injected font resources, by role ("sans"/"serif"/"mono"，
	// 粗体变体带 "-bold" 后缀)
	fontBlobs map[string][]byte

	fontMu         sync.Mutex
	fontFamilies   map[string]*canvas.FontFamily
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ letter.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Fonts map[string]Resource // by role: sans/serif/mono plus "-bold" variants
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer that resolves fonts from the system.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*canvas.FontFamily{},
	}
	for role, res := range opts.Fonts {
		if role == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[role] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // ignore error here; will be caught when actually used
			if len(data) > 0 {
				r.fontBlobs[role] = data
			}
		}
	}
	return r
}

// Render renders the document into a PDF byte slice.
func (r *Renderer) Render(doc *letter.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, doc.Pages[0].Width, doc.Pages[0].Height, nil)
	writer.SetInfo(doc.Meta.Title, doc.Meta.Subject, "", doc.Meta.Author, doc.Meta.Creator)
	for i, page := range doc.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与排版保持左上角为原点

		if err := r.drawPage(ctx, page); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page letter.Page) error {
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return err
		}
	}
	for _, img := range page.Images {
		r.drawImage(ctx, img)
	}
	return nil
}

// drawTextBox 绘制单行文本。TextBox 的坐标/字号均为 mm；创建字体面需要
// pt，这里做一次 mm→pt。排版阶段已按对齐方式算好 X，因此统一左锚绘制。
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb letter.TextBox) error {
	face, err := r.fontFace(letter.FontSpec{Family: tb.Font, Style: tb.Style, Size: tb.FontSize}, tb.Color)
	if err != nil {
		return err
	}
	textLine := canvas.NewTextLine(face, tb.Content, canvas.Left)

	// 基线位置：以行顶部（mm）加上字体上升部（Ascent）
	metrics := face.Metrics()
	ctx.DrawText(tb.X, tb.Y+metrics.Ascent, textLine)
	return nil
}

// drawImage 将签名位图嵌入目标框。解码失败时退化为固定尺寸的占位框，
// 而不是让整次渲染失败。
func (r *Renderer) drawImage(ctx *canvas.Context, box letter.ImageBox) {
	if box.Width <= 0 || box.Height <= 0 {
		return
	}
	imgData, _, err := image.Decode(bytes.NewReader(box.Data))
	if err != nil {
		r.drawPlaceholder(ctx, box)
		return
	}
	b := imgData.Bounds()
	dpmm := fitDPMM(b.Dx(), b.Dy(), box)
	if dpmm <= 0 {
		r.drawPlaceholder(ctx, box)
		return
	}
	ctx.DrawImage(box.X, box.Y, imgData, canvas.DPMM(dpmm))
}

// fitDPMM 返回让位图完整落入目标框的绘制密度（像素/mm）：取宽高两个
// 方向所需密度的较大值，渲染尺寸因此不会超过 Width×Height。
func fitDPMM(dx, dy int, box letter.ImageBox) float64 {
	return math.Max(float64(dx)/box.Width, float64(dy)/box.Height)
}

func (r *Renderer) drawPlaceholder(ctx *canvas.Context, box letter.ImageBox) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(canvas.Hex("#b0b0b0"))
	ctx.SetStrokeWidth(placeholderStrokeWidth)
	ctx.DrawPath(box.X, box.Y, canvas.Rectangle(box.Width, box.Height))
}

// TextWidth 实现 letter.Typesetter。
func (r *Renderer) TextWidth(content string, font letter.FontSpec) (float64, error) {
	face, err := r.fontFace(font, letter.Color{})
	if err != nil {
		return 0, err
	}
	return face.TextWidth(content), nil
}

// WrapText 实现 letter.Typesetter，使用贪心换行算法：优先在空白处分割，
// 超宽的单词在词内按宽度拆分。
func (r *Renderer) WrapText(content string, width float64, font letter.FontSpec) ([]string, error) {
	face, err := r.fontFace(font, letter.Color{})
	if err != nil {
		return nil, err
	}
	return greedyWrap(content, width, face.TextWidth), nil
}

// systemFontCandidates 列出每个字体角色按顺序尝试的系统字体。
var systemFontCandidates = map[string][]string{
	"sans":  {"Helvetica", "Arial", "DejaVu Sans", "Liberation Sans", "sans-serif"},
	"serif": {"Times New Roman", "Georgia", "DejaVu Serif", "Liberation Serif", "serif"},
	"mono":  {"Courier New", "DejaVu Sans Mono", "Liberation Mono", "monospace"},
}

func (r *Renderer) fontFace(font letter.FontSpec, col letter.Color) (*canvas.FontFace, error) {
	style := canvas.FontRegular
	if font.Style == "bold" {
		style = canvas.FontBold
	}
	family, err := r.ensureFontFamily(font.Family, font.Style, style)
	if err != nil {
		return nil, err
	}
	return family.Face(font.Size*letter.MmToPt, colorFromLetter(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(role, variant string, style canvas.FontStyle) (*canvas.FontFamily, error) {
	key := role + "|" + variant
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[key]; ok {
		return family, nil
	}

	family := canvas.NewFontFamily(role)
	if err := r.loadFontIntoFamily(family, role, variant, style); err != nil {
		fallback, fbErr := r.fallbackLocked(style)
		if fbErr != nil {
			return nil, err
		}
		r.fontFamilies[key] = fallback
		return fallback, nil
	}
	r.fontFamilies[key] = family
	return family, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, role, variant string, style canvas.FontStyle) error {
	// 注入的字体资源优先：先找带变体的键（如 "serif-bold"），再找角色本身。
	if variant == "bold" {
		if blob, ok := r.fontBlobs[role+"-bold"]; ok {
			return family.LoadFont(blob, 0, style)
		}
	}
	if blob, ok := r.fontBlobs[role]; ok {
		return family.LoadFont(blob, 0, style)
	}

	candidates, ok := systemFontCandidates[role]
	if !ok {
		candidates = systemFontCandidates["sans"]
	}
	var lastErr error
	for _, name := range candidates {
		if err := family.LoadSystemFont(name, style); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("字体角色 %s 没有可用候选", role)
	}
	return lastErr
}

// fallbackLocked 返回共享的兜底字体族。调用方必须已持有 fontMu。
func (r *Renderer) fallbackLocked(style canvas.FontStyle) (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	family := canvas.NewFontFamily("epistle-fallback")
	var lastErr error
	for _, role := range []string{"sans", "serif", "mono"} {
		for _, name := range systemFontCandidates[role] {
			if err := family.LoadSystemFont(name, style); err != nil {
				lastErr = err
				continue
			}
			r.fallbackFamily = family
			return family, nil
		}
	}
	return nil, fmt.Errorf("找不到任何可用的系统字体: %w", lastErr)
}

func colorFromLetter(c letter.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

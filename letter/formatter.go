package letter

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"
)

// 签名块相关常量（mm）。
const (
	// SignatureFallbackRatio 是签名图尺寸无法同步解码时采用的宽高比
	// （宽:高）。该回退值是公开契约的一部分：排版从不等待图片加载，
	// 后到的真实尺寸也不会回头移动已放置的内容。
	SignatureFallbackRatio = 3.0

	signatureMaxWidth  = 60.0
	signatureMaxHeight = 20.0
	signatureMinWidth  = 30.0
	// 没有签名图时为手写签名预留的纵向空白。
	signatureReserve = 14.0
	signatureGap     = 2.0
)

// dateLayout 是日期行的长格式（例如 "January 2, 2006"）。
const dateLayout = "January 2, 2006"

// Format 将信件正文与寄信人/收信人信息排版为分页的文档描述。
// 排版是确定性的单遍计算：同样的输入（与固定时钟）产生字节一致的结果。
// 除缺少排版后端外不会失败；可选字段缺失只会跳过对应区块。
func Format(body string, sender SenderInfo, recipient RecipientInfo, profile Profile, opts Options) (*Document, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("letter: 缺少排版后端 Typesetter")
	}
	ts := opts.Typesetter

	cur := newCursor(profile)

	// 1. 抬头：任一寄信人字段存在时输出姓名与联系方式，并附上日期。
	if !sender.IsEmpty() {
		if err := emitHeader(cur, sender, ts, opts); err != nil {
			return nil, err
		}
	}

	// 2. 收信人区块。
	if recipient.CompanyName != "" {
		emitRecipient(cur, recipient)
	}

	// 3. 内容规范化（仅正式/等宽样式）。
	content := body
	if profile.Normalize {
		content = normalizeContent(body, sender, recipient)
	}

	// 4. 正文排版。
	if err := emitBody(cur, content, ts); err != nil {
		return nil, err
	}

	// 5. 签名块。
	emitSignature(cur, content, sender)

	return &Document{
		Pages: cur.col.pages(),
		Meta: DocumentMeta{
			Title:   "Cover Letter",
			Author:  sender.Name,
			Subject: recipient.CompanyName,
			Creator: "Epistle",
		},
	}, nil
}

func emitHeader(cur *cursor, sender SenderInfo, ts Typesetter, opts Options) error {
	p := cur.profile
	date := opts.clock()().Format(dateLayout)

	// 普通样式的日期右对齐在抬头顶部，与姓名同一基线。
	if p.DateRightAligned {
		font := FontSpec{Family: p.Family, Size: p.BaseSize}
		w, err := ts.TextWidth(date, font)
		if err != nil {
			return fmt.Errorf("测量日期行宽度失败: %w", err)
		}
		cur.append(TextBox{
			Content:  date,
			X:        p.PageWidth - p.Margin.Right - w,
			Y:        cur.y,
			Width:    w,
			Font:     p.Family,
			FontSize: p.BaseSize,
			Color:    p.TextColor,
			Align:    "right",
		})
	}

	if sender.Name != "" {
		cur.setStyle(FontSpec{Family: p.Family, Style: "bold", Size: p.NameSize}, p.TextColor)
		cur.emit(sender.Name)
		cur.y += p.NameSize + p.LineSpacing + 1
	}

	cur.setStyle(FontSpec{Family: p.Family, Size: p.BaseSize}, p.MutedColor)
	for _, contact := range []string{sender.Email, sender.Phone} {
		if contact == "" {
			continue
		}
		cur.emit(contact)
		cur.y += p.HeaderLineStep
	}
	cur.resetStyle()

	// 正式/等宽样式的日期左对齐排在抬头之下。
	if !p.DateRightAligned {
		cur.y += p.LineSpacing
		cur.emit(date)
		cur.y += p.HeaderLineStep
	}

	cur.y += p.HeaderLineStep
	return nil
}

func emitRecipient(cur *cursor, recipient RecipientInfo) {
	p := cur.profile
	cur.emit(recipient.CompanyName)
	cur.y += p.HeaderLineStep
	if p.RecipientContact {
		cur.emit("Hiring Manager")
		cur.y += p.HeaderLineStep
	}
	cur.y += p.ParagraphSpacing
}

func emitBody(cur *cursor, content string, ts Typesetter) error {
	p := cur.profile
	width := p.contentWidth()
	font := FontSpec{Family: p.Family, Size: p.BaseSize}

	paragraphs := splitParagraphs(content)
	for pi, paragraph := range paragraphs {
		for _, line := range paragraph {
			// 结尾敬语之前留出额外空隙。
			if IsClosing(line) {
				cur.y += p.ClosingGap
			}

			// 含未填充占位符的行整体使用弱化色且不加粗。
			muted := HasPlaceholder(line)
			if muted {
				cur.setStyle(font, p.MutedColor)
			}

			sublines, err := ts.WrapText(line, width, font)
			if err != nil {
				return fmt.Errorf("折行失败: %w", err)
			}
			for _, sub := range sublines {
				cur.ensureSpace(p.lineHeight(p.BaseSize))
				cur.emit(sub)
				cur.y += p.lineHeight(p.BaseSize)
			}

			if muted {
				cur.setStyle(font, p.TextColor)
			}
		}
		// 最后一个段落之后不再追加段落间距。
		if pi < len(paragraphs)-1 {
			cur.y += p.ParagraphSpacing
		}
	}
	return nil
}

// emitSignature 在满足条件时追加签名块：寄信人有姓名、正文以结尾敬语收尾、
// 姓名尚未出现在正文中。空间不足时先换页。
func emitSignature(cur *cursor, content string, sender SenderInfo) {
	if sender.Name == "" {
		return
	}
	last := lastContentLine(content)
	if last == "" || !IsClosing(last) {
		return
	}
	if containsFold(content, sender.Name) {
		return
	}

	p := cur.profile
	// 区块总高包含其前的空隙，保证姓名行不会越过下边距。
	blockHeight := signatureGap + signatureReserve
	var imgW, imgH float64
	if len(sender.Signature) > 0 {
		imgW, imgH = signatureDims(sender.Signature)
		blockHeight = signatureGap + imgH + signatureGap
	}
	blockHeight += p.lineHeight(p.BaseSize)

	cur.ensureSpace(blockHeight)
	cur.y += signatureGap

	if len(sender.Signature) > 0 {
		cur.appendImage(ImageBox{
			Data:   sender.Signature,
			X:      p.Margin.Left,
			Y:      cur.y,
			Width:  imgW,
			Height: imgH,
		})
		cur.y += imgH + signatureGap
	} else {
		cur.y += signatureReserve
	}

	cur.resetStyle()
	cur.emit(sender.Name)
	cur.y += p.lineHeight(p.BaseSize)
}

// signatureDims 同步计算签名图的绘制尺寸：保持宽高比，约束在最大宽高
// 之内并保证最小宽度。位图无法解码时采用 SignatureFallbackRatio。
func signatureDims(data []byte) (float64, float64) {
	ratio := SignatureFallbackRatio
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && cfg.Width > 0 && cfg.Height > 0 {
		ratio = float64(cfg.Width) / float64(cfg.Height)
	}

	w := signatureMaxWidth
	h := w / ratio
	if h > signatureMaxHeight {
		h = signatureMaxHeight
		w = h * ratio
	}
	if w < signatureMinWidth {
		w = signatureMinWidth
		h = math.Min(signatureMaxHeight, w/ratio)
	}
	return w, h
}

// splitParagraphs 按空行边界把正文拆成段落，段落内保留原始行。
func splitParagraphs(content string) [][]string {
	var paragraphs [][]string
	var current []string
	for _, line := range splitLines(content) {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, current)
	}
	return paragraphs
}

func lastContentLine(content string) string {
	lines := splitLines(content)
	for i := len(lines) - 1; i >= 0; i-- {
		if trimmed := strings.TrimSpace(lines[i]); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// cursor 是贯穿一次排版的可变布局游标：纵向偏移、当前页与当前字体状态。
// 每次 Format 调用新建一个，结束后即丢弃，调用之间不共享任何状态。
type cursor struct {
	profile Profile
	col     *pageCollector
	y       float64

	// 当前字体/颜色状态。换页后是否保留由样式档决定。
	font  FontSpec
	color Color
}

func newCursor(profile Profile) *cursor {
	c := &cursor{
		profile: profile,
		col:     newPageCollector(profile),
		y:       profile.Margin.Top,
	}
	c.resetStyle()
	return c
}

// resetStyle 回落到正文默认字体状态。
func (c *cursor) resetStyle() {
	c.font = FontSpec{Family: c.profile.Family, Size: c.profile.BaseSize}
	c.color = c.profile.TextColor
}

func (c *cursor) setStyle(font FontSpec, color Color) {
	c.font = font
	c.color = color
}

// emit 以当前字体状态在左边距处输出一行文本。
func (c *cursor) emit(content string) {
	c.append(TextBox{
		Content:  content,
		X:        c.profile.Margin.Left,
		Y:        c.y,
		Width:    c.profile.contentWidth(),
		Font:     c.font.Family,
		Style:    c.font.Style,
		FontSize: c.font.Size,
		Color:    c.color,
	})
}

func (c *cursor) append(tb TextBox) {
	c.col.curr().texts = append(c.col.curr().texts, tb)
}

func (c *cursor) appendImage(img ImageBox) {
	c.col.curr().images = append(c.col.curr().images, img)
}

// ensureSpace 在剩余空间不足以容纳 height 时换页。
func (c *cursor) ensureSpace(height float64) {
	if c.y+height <= c.profile.contentBottom() {
		return
	}
	c.pageBreak()
}

// pageBreak 新起一页并把游标重置到上边距。普通样式的绘制状态不跨页保留，
// 换页后回落到正文默认字体；正式/等宽样式显式恢复当前字体状态。
func (c *cursor) pageBreak() {
	c.col.newPage()
	c.y = c.profile.Margin.Top
	if !c.profile.RestoreStyleAfterBreak {
		c.resetStyle()
	}
}

type pageAcc struct {
	texts  []TextBox
	images []ImageBox
}

type pageCollector struct {
	profile Profile
	accs    []*pageAcc
	current int
}

func newPageCollector(profile Profile) *pageCollector {
	pc := &pageCollector{profile: profile}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAcc {
	acc := &pageAcc{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAcc {
	return pc.accs[pc.current]
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.profile.PageWidth,
			Height: pc.profile.PageHeight,
			Margin: pc.profile.Margin,
			Texts:  acc.texts,
			Images: acc.images,
		}
	}
	return out
}

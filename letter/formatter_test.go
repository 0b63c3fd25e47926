package letter

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
)

// stubTypesetter 是一个最小的测量/折行实现，仅用于测试：
// 每个字符按固定宽度计，避免引入真实字体造成依赖。
type stubTypesetter struct {
	charWidth float64
}

func (s *stubTypesetter) cw() float64 {
	if s.charWidth > 0 {
		return s.charWidth
	}
	return 2
}

func (s *stubTypesetter) TextWidth(content string, font FontSpec) (float64, error) {
	return float64(utf8.RuneCountInString(content)) * s.cw(), nil
}

func (s *stubTypesetter) WrapText(content string, width float64, font FontSpec) ([]string, error) {
	limit := int(width / s.cw())
	if limit < 1 {
		limit = 1
	}
	var lines []string
	current := ""
	push := func() {
		lines = append(lines, current)
		current = ""
	}
	for _, word := range strings.Fields(content) {
		for utf8.RuneCountInString(word) > limit {
			runes := []rune(word)
			if current != "" {
				push()
			}
			current = string(runes[:limit])
			push()
			word = string(runes[limit:])
		}
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if utf8.RuneCountInString(candidate) > limit {
			push()
			current = word
			continue
		}
		current = candidate
	}
	if current != "" || len(lines) == 0 {
		lines = append(lines, current)
	}
	return lines, nil
}

func fixedClock() time.Time {
	return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
}

func format(t *testing.T, body string, sender SenderInfo, recipient RecipientInfo, profile Profile) *Document {
	t.Helper()
	doc, err := Format(body, sender, recipient, profile, Options{
		Typesetter: &stubTypesetter{},
		Now:        fixedClock,
	})
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	return doc
}

// TestWrapInvariant 断言：任何输出行的渲染宽度都不超过列宽。
func TestWrapInvariant(t *testing.T) {
	body := strings.Repeat("alpha beta gamma delta epsilon zeta eta theta ", 40) + "\n\n" +
		strings.Repeat("x", 500)
	profile := StandardProfile()
	doc := format(t, body, SenderInfo{Name: "Jane Doe"}, RecipientInfo{}, profile)

	ts := &stubTypesetter{}
	limit := profile.contentWidth()
	for pi, page := range doc.Pages {
		for _, tb := range page.Texts {
			w, _ := ts.TextWidth(tb.Content, FontSpec{})
			if w > limit+1e-9 {
				t.Fatalf("第 %d 页出现超宽行: %q 宽 %g 超过 %g", pi+1, tb.Content, w, limit)
			}
		}
	}
}

// TestPageBreakInvariant 断言：没有文本画到下边距之下，且足够长的正文
// 会产生严格增长的页数。
func TestPageBreakInvariant(t *testing.T) {
	profile := StandardProfile()
	paragraph := "Lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor."

	prevPages := 0
	for _, repeats := range []int{5, 60, 180} {
		body := strings.Repeat(paragraph+"\n\n", repeats)
		doc := format(t, body, SenderInfo{}, RecipientInfo{}, profile)
		if len(doc.Pages) < 1 {
			t.Fatalf("页数不能小于 1")
		}
		if len(doc.Pages) < prevPages {
			t.Fatalf("更长的正文页数反而减少: %d < %d", len(doc.Pages), prevPages)
		}
		if repeats == 180 && len(doc.Pages) <= prevPages {
			t.Fatalf("足够长的正文应当增加页数: %d", len(doc.Pages))
		}
		prevPages = len(doc.Pages)

		bottom := profile.contentBottom()
		for pi, page := range doc.Pages {
			for _, tb := range page.Texts {
				if tb.Y+profile.lineHeight(tb.FontSize) > bottom+1e-9 {
					t.Fatalf("第 %d 页文本越过下边距: y=%g", pi+1, tb.Y)
				}
			}
		}
	}
}

// TestIdempotence 验证同样的输入（固定时钟）两次排版结果完全一致。
func TestIdempotence(t *testing.T) {
	body := "Dear Hiring Manager,\n\nI would like to apply.\n\nSincerely,"
	sender := SenderInfo{Name: "Jane Doe", Email: "jane@x.com", Phone: "+1 555 0100"}
	recipient := RecipientInfo{CompanyName: "Acme"}

	for _, profile := range []Profile{StandardProfile(), FormalProfile(), MarkdownProfile()} {
		a := format(t, body, sender, recipient, profile)
		b := format(t, body, sender, recipient, profile)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("样式档 %s 两次排版不一致 (-a +b):\n%s", profile.Name, diff)
		}
	}
}

// TestNoHeaderStartsAtTopMargin 验证寄信人/收信人全空时抬头区块整体省略，
// 正文从上边距开始。
func TestNoHeaderStartsAtTopMargin(t *testing.T) {
	profile := FormalProfile()
	doc := format(t, "Dear Hiring Manager:\n\nBody text.", SenderInfo{}, RecipientInfo{}, profile)

	if len(doc.Pages) == 0 || len(doc.Pages[0].Texts) == 0 {
		t.Fatalf("没有输出文本")
	}
	first := doc.Pages[0].Texts[0]
	if first.Y != profile.Margin.Top {
		t.Fatalf("正文应从上边距开始: got y=%g want %g", first.Y, profile.Margin.Top)
	}
	for _, tb := range doc.Pages[0].Texts {
		if strings.Contains(tb.Content, "2024") {
			t.Fatalf("没有寄信人字段时不应输出日期行: %q", tb.Content)
		}
	}
}

// TestDateAlignmentPerProfile 验证日期对齐方式是样式档级别的可配置差异。
func TestDateAlignmentPerProfile(t *testing.T) {
	sender := SenderInfo{Name: "Jane Doe"}
	wantDate := "March 15, 2024"

	std := format(t, "Body.", sender, RecipientInfo{}, StandardProfile())
	var found *TextBox
	for i, tb := range std.Pages[0].Texts {
		if tb.Content == wantDate {
			found = &std.Pages[0].Texts[i]
		}
	}
	if found == nil {
		t.Fatalf("普通样式缺少日期行")
	}
	if found.Align != "right" || found.X <= StandardProfile().Margin.Left {
		t.Fatalf("普通样式日期应右对齐: %+v", *found)
	}

	formal := format(t, "Body.", sender, RecipientInfo{}, FormalProfile())
	found = nil
	for i, tb := range formal.Pages[0].Texts {
		if tb.Content == wantDate {
			found = &formal.Pages[0].Texts[i]
		}
	}
	if found == nil {
		t.Fatalf("正式样式缺少日期行")
	}
	if found.Align == "right" || found.X != FormalProfile().Margin.Left {
		t.Fatalf("正式样式日期应左对齐排在抬头之下: %+v", *found)
	}
}

// TestRecipientBlockPerProfile 验证普通样式补 "Hiring Manager" 行而
// 正式样式只输出公司名。
func TestRecipientBlockPerProfile(t *testing.T) {
	recipient := RecipientInfo{CompanyName: "Acme"}

	std := format(t, "Body.", SenderInfo{}, recipient, StandardProfile())
	if !hasLine(std, "Hiring Manager") {
		t.Fatalf("普通样式应输出 Hiring Manager 行")
	}

	formal := format(t, "Body.", SenderInfo{}, recipient, FormalProfile())
	count := 0
	for _, tb := range formal.Pages[0].Texts {
		if tb.Content == "Hiring Manager" {
			count++
		}
	}
	if count != 0 {
		t.Fatalf("正式样式不应单独输出 Hiring Manager 行")
	}
}

// TestSignatureDedup 对应落款去重场景：结尾敬语之后与寄信人重复的行被
// 删除，签名块被追加。
func TestSignatureDedup(t *testing.T) {
	body := "Dear Hiring Manager,\n\nI am excited to apply.\n\nSincerely,\nJane Doe\njane@x.com"
	sender := SenderInfo{Name: "Jane Doe", Email: "jane@x.com"}
	doc := format(t, body, sender, RecipientInfo{}, FormalProfile())

	if !hasLine(doc, "Dear Hiring Manager:") {
		t.Fatalf("称呼行应被改写为冒号结尾")
	}
	if !hasLine(doc, "Sincerely,") {
		t.Fatalf("结尾敬语行丢失")
	}
	// 邮箱只应出现在抬头一次，落款里的重复行被删除。
	count := 0
	for _, page := range doc.Pages {
		for _, tb := range page.Texts {
			if tb.Content == "jane@x.com" {
				count++
			}
		}
	}
	if count != 1 {
		t.Fatalf("落款邮箱行应只在抬头出现一次，实际 %d 次", count)
	}
	lastPage := doc.Pages[len(doc.Pages)-1]
	if len(lastPage.Texts) == 0 {
		t.Fatalf("没有输出文本")
	}
	last := lastPage.Texts[len(lastPage.Texts)-1]
	if last.Content != "Jane Doe" {
		t.Fatalf("签名块末尾应为寄信人姓名，实际 %q", last.Content)
	}
}

// TestSignatureSkippedWithoutClosing 验证正文没有结尾敬语时不追加签名块。
func TestSignatureSkippedWithoutClosing(t *testing.T) {
	doc := format(t, "Just a body without closing.", SenderInfo{Name: "Jane Doe"}, RecipientInfo{}, FormalProfile())
	lastPage := doc.Pages[len(doc.Pages)-1]
	for _, tb := range lastPage.Texts {
		if tb.Content == "Jane Doe" && tb.Y > FormalProfile().Margin.Top+1 {
			t.Fatalf("没有结尾敬语时不应追加签名块")
		}
	}
}

// TestSignatureImageFallback 验证无法同步解码尺寸的签名图仍按回退宽高比
// 放置，既不报错也不阻塞输出。
func TestSignatureImageFallback(t *testing.T) {
	body := "Dear Hiring Manager:\n\nBody.\n\nSincerely,"
	sender := SenderInfo{
		Name:      "Jane Doe",
		Signature: []byte("not an image at all"),
	}
	doc := format(t, body, sender, RecipientInfo{}, FormalProfile())

	var img *ImageBox
	for pi := range doc.Pages {
		for i := range doc.Pages[pi].Images {
			img = &doc.Pages[pi].Images[i]
		}
	}
	if img == nil {
		t.Fatalf("签名图未被放置")
	}
	if ratio := img.Width / img.Height; abs(ratio-SignatureFallbackRatio) > 1e-9 {
		t.Fatalf("回退宽高比错误: got %g want %g", ratio, SignatureFallbackRatio)
	}
	if img.Width > signatureMaxWidth+1e-9 || img.Height > signatureMaxHeight+1e-9 {
		t.Fatalf("签名图超出最大包络: %gx%g", img.Width, img.Height)
	}
}

// TestSignatureReserveWithoutImage 验证无签名图时预留手写空白后输出姓名行。
func TestSignatureReserveWithoutImage(t *testing.T) {
	body := "Body.\n\nSincerely,"
	doc := format(t, body, SenderInfo{Name: "Jane Doe"}, RecipientInfo{}, FormalProfile())

	lastPage := doc.Pages[len(doc.Pages)-1]
	if len(lastPage.Images) != 0 {
		t.Fatalf("无签名图时不应输出图片")
	}
	texts := lastPage.Texts
	last := texts[len(texts)-1]
	prev := texts[len(texts)-2]
	if last.Content != "Jane Doe" {
		t.Fatalf("签名块末尾应为姓名行，实际 %q", last.Content)
	}
	if gap := last.Y - prev.Y; gap < signatureReserve {
		t.Fatalf("姓名行之前应预留手写空白: gap=%g", gap)
	}
}

// TestSignatureRespectsBottomMargin 扫过一段行数区间，使签名块恰好落在
// 页面底部附近的各个位置，断言姓名行（以及其余文本）始终不越过下边距。
func TestSignatureRespectsBottomMargin(t *testing.T) {
	profile := FormalProfile()
	sender := SenderInfo{Name: "Jane Doe"}
	bottom := profile.contentBottom()

	for lines := 20; lines <= 60; lines++ {
		body := strings.Repeat("Short line.\n", lines) + "\nSincerely,"
		doc := format(t, body, sender, RecipientInfo{}, profile)
		for pi, page := range doc.Pages {
			for _, tb := range page.Texts {
				if tb.Y+profile.lineHeight(tb.FontSize) > bottom+1e-9 {
					t.Fatalf("行数 %d 时第 %d 页文本越过下边距: %q y=%g",
						lines, pi+1, tb.Content, tb.Y)
				}
			}
		}
	}
}

// TestSignatureImageRespectsBottomMargin 与上面相同的扫描，但带签名图：
// 图片与姓名行都必须完整落在内容区域内。
func TestSignatureImageRespectsBottomMargin(t *testing.T) {
	profile := FormalProfile()
	sender := SenderInfo{Name: "Jane Doe", Signature: []byte("not an image")}
	bottom := profile.contentBottom()

	for lines := 20; lines <= 60; lines++ {
		body := strings.Repeat("Short line.\n", lines) + "\nSincerely,"
		doc := format(t, body, sender, RecipientInfo{}, profile)
		for pi, page := range doc.Pages {
			for _, tb := range page.Texts {
				if tb.Y+profile.lineHeight(tb.FontSize) > bottom+1e-9 {
					t.Fatalf("行数 %d 时第 %d 页文本越过下边距: %q y=%g",
						lines, pi+1, tb.Content, tb.Y)
				}
			}
			for _, img := range page.Images {
				if img.Y+img.Height > bottom+1e-9 {
					t.Fatalf("行数 %d 时第 %d 页签名图越过下边距: y=%g h=%g",
						lines, pi+1, img.Y, img.Height)
				}
			}
		}
	}
}

// TestMissingTypesetter 验证缺少排版后端时返回错误。
func TestMissingTypesetter(t *testing.T) {
	if _, err := Format("x", SenderInfo{}, RecipientInfo{}, StandardProfile(), Options{}); err == nil {
		t.Fatalf("缺少 Typesetter 时应报错")
	}
}

func hasLine(doc *Document, content string) bool {
	for _, page := range doc.Pages {
		for _, tb := range page.Texts {
			if tb.Content == content {
				return true
			}
		}
	}
	return false
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

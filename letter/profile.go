package letter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile 描述一个命名的样式档：字体、字号、边距与间距等排版参数。
// 三个内置样式档覆盖"普通/正式/等宽"三种输出风格。
type Profile struct {
	Name string

	// 页面尺寸与边距（mm）。
	PageWidth  float64
	PageHeight float64
	Margin     Margin

	// 字体角色与字号（mm）。
	Family   string  // sans/serif/mono
	BaseSize float64 // 正文字号
	NameSize float64 // 抬头姓名字号

	// 纵向间距（mm）。
	LineSpacing      float64 // 行与行之间的额外空隙
	HeaderLineStep   float64 // 抬头区域的固定行进
	ParagraphSpacing float64 // 段落间距
	ClosingGap       float64 // 结尾敬语前的额外空隙

	// DateRightAligned 为 true 时日期右对齐于抬头顶部（普通样式），
	// 否则左对齐排在抬头之下（正式/等宽样式）。
	DateRightAligned bool

	// Normalize 控制是否执行内容规范化（称呼补冒号、落款去重等）。
	Normalize bool

	// RecipientContact 为 true 时在公司名下追加 "Hiring Manager" 行。
	RecipientContact bool

	// RestoreStyleAfterBreak 控制换页后是否恢复当前字体/颜色状态；
	// 普通样式换页后回落到正文默认状态。
	RestoreStyleAfterBreak bool

	TextColor  Color
	MutedColor Color

	// DefaultFileName 为未指定输出名时的默认文件名。
	DefaultFileName string
}

// lineHeight 返回一行文本占用的总高度（字高 + 行距）。
func (p Profile) lineHeight(fontSize float64) float64 {
	return fontSize + p.LineSpacing
}

// contentWidth 返回可排版的列宽。
func (p Profile) contentWidth() float64 {
	return p.PageWidth - p.Margin.Left - p.Margin.Right
}

// contentBottom 返回内容区域底部的纵坐标。
func (p Profile) contentBottom() float64 {
	return p.PageHeight - p.Margin.Bottom
}

const (
	a4Width  = 210.0
	a4Height = 297.0
)

func baseProfile(name string) Profile {
	return Profile{
		Name:             name,
		PageWidth:        a4Width,
		PageHeight:       a4Height,
		Margin:           Margin{Top: 20, Right: 20, Bottom: 20, Left: 20},
		BaseSize:         11 * PtToMm,
		NameSize:         16 * PtToMm,
		LineSpacing:      1.6,
		HeaderLineStep:   6,
		ParagraphSpacing: 4,
		ClosingGap:       6,
		TextColor:        Color{R: 30, G: 30, B: 30},
		MutedColor:       Color{R: 110, G: 110, B: 110},
	}
}

// StandardProfile 返回普通样式：无衬线字体，日期右对齐，不做内容规范化。
func StandardProfile() Profile {
	p := baseProfile("standard")
	p.Family = "sans"
	p.DateRightAligned = true
	p.RecipientContact = true
	p.DefaultFileName = "cover-letter.pdf"
	return p
}

// FormalProfile 返回正式样式：衬线字体，日期排在抬头之下，启用内容规范化，
// 且换页后恢复字体状态。
func FormalProfile() Profile {
	p := baseProfile("formal")
	p.Family = "serif"
	p.Normalize = true
	p.RestoreStyleAfterBreak = true
	p.ParagraphSpacing = 5
	p.DefaultFileName = "cover-letter-formal.pdf"
	return p
}

// MarkdownProfile 返回等宽样式：等宽字体，其余行为与正式样式一致。
func MarkdownProfile() Profile {
	p := baseProfile("markdown")
	p.Family = "mono"
	p.BaseSize = 10 * PtToMm
	p.NameSize = 13 * PtToMm
	p.Normalize = true
	p.RestoreStyleAfterBreak = true
	p.DefaultFileName = "cover-letter.md.pdf"
	return p
}

// ProfileByName 按名称返回内置样式档，接受若干别名。
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard", "plain":
		return StandardProfile(), nil
	case "formal", "serif":
		return FormalProfile(), nil
	case "markdown", "mono", "monospace":
		return MarkdownProfile(), nil
	default:
		return Profile{}, fmt.Errorf("未知的样式档：%s", name)
	}
}

// ProfileOverride 是 YAML 样式覆盖文件的映射结构，长度字段使用带单位的
// 字符串（"12pt"/"6mm"；lineSpacing 另接受 "1.4x" 倍数形式）。
// 空字段保持原样，无法解析的值报错。
type ProfileOverride struct {
	Family           string `yaml:"family"`
	BaseSize         string `yaml:"baseSize"`
	NameSize         string `yaml:"nameSize"`
	MarginTop        string `yaml:"marginTop"`
	MarginRight      string `yaml:"marginRight"`
	MarginBottom     string `yaml:"marginBottom"`
	MarginLeft       string `yaml:"marginLeft"`
	LineSpacing      string `yaml:"lineSpacing"`
	ParagraphSpacing string `yaml:"paragraphSpacing"`
	TextColor        string `yaml:"textColor"`
	MutedColor       string `yaml:"mutedColor"`
}

// ApplyOverride 从 r 读取 YAML 覆盖并应用到 p 的副本上。
func ApplyOverride(p Profile, r io.Reader) (Profile, error) {
	var ov ProfileOverride
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&ov); err != nil && err != io.EOF {
		return Profile{}, fmt.Errorf("解析样式覆盖失败: %w", err)
	}

	if ov.Family != "" {
		switch ov.Family {
		case "sans", "serif", "mono":
			p.Family = ov.Family
		default:
			return Profile{}, fmt.Errorf("未知的字体角色：%s", ov.Family)
		}
	}
	setLen := func(dst *float64, raw string) error {
		if raw == "" {
			return nil
		}
		l, err := ParseLength(raw)
		if err != nil {
			return fmt.Errorf("样式覆盖包含无法解析的长度: %w", err)
		}
		if l.Unit == UnitFactor {
			return fmt.Errorf("该字段不接受倍数形式：%s", raw)
		}
		*dst = l.ToMM()
		return nil
	}
	for _, item := range []struct {
		dst *float64
		raw string
	}{
		{&p.BaseSize, ov.BaseSize},
		{&p.NameSize, ov.NameSize},
		{&p.Margin.Top, ov.MarginTop},
		{&p.Margin.Right, ov.MarginRight},
		{&p.Margin.Bottom, ov.MarginBottom},
		{&p.Margin.Left, ov.MarginLeft},
		{&p.ParagraphSpacing, ov.ParagraphSpacing},
	} {
		if err := setLen(item.dst, item.raw); err != nil {
			return Profile{}, err
		}
	}

	// lineSpacing 额外接受 "1.4x" 倍数形式：行高为字号的倍数，
	// 按覆盖后的字号折算为额外行距。
	if ov.LineSpacing != "" {
		l, err := ParseLength(ov.LineSpacing)
		if err != nil {
			return Profile{}, fmt.Errorf("样式覆盖包含无法解析的长度: %w", err)
		}
		if l.Unit == UnitFactor {
			spacing := p.BaseSize * (l.Value - 1)
			if spacing < 0 {
				spacing = 0
			}
			p.LineSpacing = spacing
		} else {
			p.LineSpacing = l.ToMM()
		}
	}

	if ov.TextColor != "" {
		c, err := parseHexColor(ov.TextColor)
		if err != nil {
			return Profile{}, err
		}
		p.TextColor = c
	}
	if ov.MutedColor != "" {
		c, err := parseHexColor(ov.MutedColor)
		if err != nil {
			return Profile{}, err
		}
		p.MutedColor = c
	}
	return p, nil
}

func parseHexColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(v) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(string(v[0]), 2)),
			G: mustHex(strings.Repeat(string(v[1]), 2)),
			B: mustHex(strings.Repeat(string(v[2]), 2)),
		}, nil
	case 6:
		return Color{
			R: mustHex(v[0:2]),
			G: mustHex(v[2:4]),
			B: mustHex(v[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

package letter

import "time"

// Options 配置排版阶段所需的依赖，例如测量/折行后端与时钟。
type Options struct {
	Typesetter Typesetter
	// Now 提供日期行使用的时钟，为空时取 time.Now。
	// 注入固定时钟可以获得字节级可复现的排版结果。
	Now func() time.Time
}

func (o Options) clock() func() time.Time {
	if o.Now != nil {
		return o.Now
	}
	return time.Now
}

// FontSpec 描述一次测量/折行所使用的字体。Size 单位为毫米。
type FontSpec struct {
	Family string // 字体角色：sans/serif/mono
	Style  string // ""/regular/bold
	Size   float64
}

// Typesetter 负责文本宽度测量与按列宽折行，由渲染后端实现。
type Typesetter interface {
	// TextWidth 返回单行文本的渲染宽度（mm）。
	TextWidth(content string, font FontSpec) (float64, error)
	// WrapText 将一行文本按列宽拆成若干子行，保证每个子行的
	// 渲染宽度不超过 width。
	WrapText(content string, width float64, font FontSpec) ([]string, error)
}

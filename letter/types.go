package letter

// 该文件定义排版结果与信件元数据，供排版计算、渲染与调试 JSON 共用。
// 坐标与尺寸统一以毫米为单位，原点位于页面左上角。

// Document 保存排版后的全部页面与 PDF 元信息。
type Document struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// SenderInfo 描述寄信人信息，全部字段可选。
// Signature 为原始位图字节（PNG/JPEG/GIF），为空表示没有手写签名图。
type SenderInfo struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Signature []byte `json:"-"`
}

// IsEmpty 报告是否没有任何可渲染的寄信人字段（签名图不计入）。
func (s SenderInfo) IsEmpty() bool {
	return s.Name == "" && s.Email == "" && s.Phone == ""
}

// RecipientInfo 描述收信人信息。
type RecipientInfo struct {
	CompanyName string `json:"companyName,omitempty"`
}

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
type Page struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Margin Margin     `json:"margin"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images,omitempty"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// TextBox 表示一行已经排好坐标的文本。
// 信件排版以"行"为最小单位输出，便于逐行做分页判断。
type TextBox struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Font     string  `json:"font"`            // 字体角色：sans/serif/mono
	Style    string  `json:"style,omitempty"` // regular（省略）/bold
	FontSize float64 `json:"fontSize"`
	Color    Color   `json:"color"`
	Align    string  `json:"align,omitempty"` // left（省略）/right
}

// ImageBox 用于描述签名图的位置与尺寸，Data 为原始位图字节。
type ImageBox struct {
	Data   []byte  `json:"-"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Subject string `json:"subject"`
	Creator string `json:"creator"`
}

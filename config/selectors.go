package config

// Affordance locates one interactive control: elements matching Selector
// whose visible text matches the Text regular expression (any text when empty).
type Affordance struct {
	Selector string `yaml:"selector"`
	Text     string `yaml:"text,omitempty"`
}

// SelectorConfig lists every ranked probe list the engine consults.
// Order matters: earlier entries are tried first.
type SelectorConfig struct {
	LoginControls  []Affordance `yaml:"loginControls"`
	EntryPoints    []Affordance `yaml:"entryPoints"`
	MyContentLinks []Affordance `yaml:"myContentLinks"`
	EditLinks      []Affordance `yaml:"editLinks"`
	Editors        []string     `yaml:"editors"`

	ProfitEntry    []Affordance `yaml:"profitEntry"`
	PanelFrames    []string     `yaml:"panelFrames"`
	CategoryTabs   []Affordance `yaml:"categoryTabs"`
	ProviderTab    string       `yaml:"providerTab"`
	SearchInputs   []string     `yaml:"searchInputs"`
	SearchTriggers []Affordance `yaml:"searchTriggers"`
	NoMatchTexts   []string     `yaml:"noMatchTexts"`
	CandidateRow   string       `yaml:"candidateRow"`
	AddButton      Affordance   `yaml:"addButton"`
	ConfirmButtons []Affordance `yaml:"confirmButtons"`
	PanelClose     []Affordance `yaml:"panelClose"`

	SubmitButtons []Affordance `yaml:"submitButtons"`
	DraftButtons  []Affordance `yaml:"draftButtons"`
}

// DefaultSelectors returns the probe lists for the zhihu.com editor.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		LoginControls: []Affordance{
			{Selector: "button", Text: `^\s*登录\s*/\s*注册\s*$`},
			{Selector: "a", Text: `^\s*登录\s*/\s*注册\s*$`},
			{Selector: "button.SignFlow-submitButton"},
			{Selector: "button", Text: `^\s*登录\s*$`},
		},
		EntryPoints: []Affordance{
			{Selector: "button", Text: `^\s*编辑回答\s*$`},
			{Selector: "button", Text: `^\s*写回答\s*$`},
			{Selector: "button", Text: `^\s*发布\s*$`},
			{Selector: "a", Text: `^\s*写文章\s*$`},
		},
		MyContentLinks: []Affordance{
			{Selector: "a", Text: `查看我的回答`},
			{Selector: "button", Text: `查看我的回答`},
		},
		EditLinks: []Affordance{
			{Selector: "button", Text: `^\s*编辑\s*$`},
			{Selector: "a", Text: `^\s*编辑\s*$`},
			{Selector: "button", Text: `^\s*编辑回答\s*$`},
		},
		Editors: []string{
			`.public-DraftEditor-content[contenteditable="true"]`,
			`.ProseMirror[contenteditable="true"]`,
			`div[contenteditable="true"]`,
			`textarea`,
			`input[type="text"]`,
		},
		ProfitEntry: []Affordance{
			{Selector: `button[aria-label="好物推荐"]`},
			{Selector: "button", Text: `好物推荐`},
			{Selector: "div[role=button]", Text: `好物推荐`},
		},
		PanelFrames: []string{
			`iframe[src*="mcn"]`,
			`iframe[src*="goods"]`,
			`.Modal iframe`,
			`iframe`,
		},
		CategoryTabs: []Affordance{
			{Selector: "[role=tab]", Text: `商品推荐`},
			{Selector: "div", Text: `^\s*商品推荐\s*$`},
			{Selector: "span", Text: `^\s*商品推荐\s*$`},
		},
		ProviderTab: "[role=tab], button, span",
		SearchInputs: []string{
			`input[placeholder*="链接"]`,
			`input[placeholder*="搜索"]`,
			`input[type="search"]`,
			`input[type="text"]`,
			`input`,
		},
		SearchTriggers: []Affordance{
			{Selector: "button", Text: `^\s*搜索\s*$`},
			{Selector: "button[type=submit]"},
		},
		NoMatchTexts: []string{"暂无", "没有找到", "未找到", "无匹配"},
		CandidateRow: `li, tr, [class*="Item"], [class*="item"]`,
		AddButton:    Affordance{Selector: "button", Text: `^\s*添加\s*$`},
		ConfirmButtons: []Affordance{
			{Selector: "button", Text: `^\s*确定\s*$`},
			{Selector: "button", Text: `^\s*确认\s*$`},
		},
		PanelClose: []Affordance{
			{Selector: `button[aria-label="关闭"]`},
			{Selector: ".Modal-closeButton"},
		},
		SubmitButtons: []Affordance{
			{Selector: "button", Text: `^发布回答$`},
			{Selector: "button", Text: `^提交修改$`},
			{Selector: "button", Text: `^发布$`},
		},
		DraftButtons: []Affordance{
			{Selector: "button", Text: `^\s*保存草稿\s*$`},
			{Selector: "button", Text: `^\s*存草稿\s*$`},
		},
	}
}

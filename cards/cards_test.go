package cards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/cardpost/config"
	"github.com/use-agent/cardpost/driver/drivertest"
	"github.com/use-agent/cardpost/models"
)

const (
	entrySel = `button[aria-label="好物推荐"]`
	frameSel = `iframe[src*="mcn"]`
	jdOne    = "https://item.jd.com/100.html"
	jdTwo    = "https://item.jd.com/200.html"
)

const (
	oneRow  = `<ul><li class="GoodsItem"><span>商品A</span><button>添加</button></li></ul>`
	twoRows = `<ul><li><span>A</span><button>添加</button></li><li><span>B</span><button>添加</button></li></ul>`
	noRows  = `<ul><li><span>A</span><button>已添加</button></li></ul>`
)

type result struct {
	html string
	text string
}

type fixture struct {
	page     *drivertest.Page
	entry    *drivertest.Element
	frame    *drivertest.Frame
	input    *drivertest.Element
	add      *drivertest.Element
	closeBtn *drivertest.Element
	editor   *drivertest.Element

	results     map[string]result
	addChanges  bool
	frameOnOpen bool
}

func newFixture() *fixture {
	f := &fixture{
		page:        drivertest.NewPage(),
		frame:       drivertest.NewFrame(),
		editor:      drivertest.NewElement(""),
		results:     map[string]result{},
		addChanges:  true,
		frameOnOpen: true,
	}
	f.editor.SetHTML("<p>body</p>")

	host := &drivertest.Element{FrameDoc: f.frame}
	f.entry = f.page.Add(entrySel, drivertest.NewElement(""))
	f.entry.OnClick = func() {
		if f.frameOnOpen {
			f.page.Remove(frameSel)
			f.page.Add(frameSel, host)
		}
	}

	f.frame.Add("[role=tab]", drivertest.NewElement("商品推荐"))
	f.frame.Add("[role=tab], button, span", drivertest.NewElement("京东"))
	f.input = f.frame.Add(`input[placeholder*="链接"]`, drivertest.NewElement(""))

	search := f.frame.Add("button", drivertest.NewElement("搜索"))
	search.OnClick = func() {
		r := f.results[f.input.Inputs[len(f.input.Inputs)-1]]
		f.frame.HTMLBody = r.html
		f.frame.TextBody = r.text
	}

	f.add = f.frame.Add("button", drivertest.NewElement("添加"))
	f.add.OnClick = func() {
		if f.addChanges {
			f.editor.HTMLValue += `<div class="card"></div>`
		}
	}

	f.closeBtn = f.frame.Add(`button[aria-label="关闭"]`, drivertest.NewElement(""))
	f.closeBtn.OnClick = func() { f.page.Remove(frameSel) }
	return f
}

func fastConfig() *config.Config {
	cfg := config.Default()
	cfg.Timeouts.Action = time.Second
	cfg.Timeouts.PanelWait = 30 * time.Millisecond
	cfg.Timeouts.PollInterval = 5 * time.Millisecond
	cfg.Timeouts.StepSettle = time.Millisecond
	cfg.Timeouts.SearchSettle = time.Millisecond
	return cfg
}

func newInserter(t *testing.T) *Inserter {
	t.Helper()
	ins, err := NewInserter(fastConfig())
	require.NoError(t, err)
	return ins
}

func TestInsertAll_Inserted(t *testing.T) {
	f := newFixture()
	f.results[jdOne] = result{html: oneRow, text: "商品A 添加"}

	got := newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{jdOne})
	require.Len(t, got, 1)
	assert.Equal(t, models.CardAttempt{URL: jdOne, Outcome: models.OutcomeInserted}, got[0])
	assert.Equal(t, []string{jdOne}, f.input.Inputs)
	assert.Equal(t, 1, f.add.Clicks)
	assert.Equal(t, 1, f.closeBtn.Clicks)
}

func TestInsertAll_MultipleCandidatesContinuesBatch(t *testing.T) {
	f := newFixture()
	f.results[jdOne] = result{html: twoRows, text: "A 添加 B 添加"}
	f.results[jdTwo] = result{html: oneRow, text: "商品A 添加"}

	got := newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{jdOne, jdTwo})
	require.Len(t, got, 2)
	assert.Equal(t, models.SkipMultipleCandidates, got[0].Reason)
	assert.Equal(t, models.OutcomeSkipped, got[0].Outcome)
	assert.True(t, got[1].Inserted())
	assert.Equal(t, 1, f.add.Clicks)
	assert.Equal(t, 2, f.closeBtn.Clicks, "panel closed after every URL")
}

func TestInsertAll_SkipReasons(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		setup  func(f *fixture)
		reason string
	}{
		{
			name:   "unsupported provider",
			url:    "https://example.com/item/1",
			reason: models.SkipUnsupportedProvider,
		},
		{
			name:   "no profit entry",
			url:    jdOne,
			setup:  func(f *fixture) { f.page.Remove(entrySel) },
			reason: models.SkipCannotOpenEntry,
		},
		{
			name:   "panel never opens",
			url:    jdOne,
			setup:  func(f *fixture) { f.frameOnOpen = false },
			reason: models.SkipPanelNotOpened,
		},
		{
			name:   "no search input",
			url:    jdOne,
			setup:  func(f *fixture) { f.frame.Remove(`input[placeholder*="链接"]`) },
			reason: models.SkipSearchInputMissing,
		},
		{
			name: "no match",
			url:  jdOne,
			setup: func(f *fixture) {
				f.results[jdOne] = result{html: "<p>暂无相关商品</p>", text: "暂无相关商品"}
			},
			reason: models.SkipNoMatch,
		},
		{
			name:   "no add button",
			url:    jdOne,
			setup:  func(f *fixture) { f.results[jdOne] = result{html: noRows, text: "A 已添加"} },
			reason: models.SkipNoAddButton,
		},
		{
			name: "add click fails",
			url:  jdOne,
			setup: func(f *fixture) {
				f.results[jdOne] = result{html: oneRow, text: "商品A 添加"}
				f.add.ClickErr = drivertest.ErrClick
				f.add.ForceClickErr = drivertest.ErrClick
			},
			reason: models.SkipAddClickFailed,
		},
		{
			name: "editor unchanged",
			url:  jdOne,
			setup: func(f *fixture) {
				f.results[jdOne] = result{html: oneRow, text: "商品A 添加"}
				f.addChanges = false
			},
			reason: models.SkipEditorNotChanged,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			got := newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{tt.url})
			require.Len(t, got, 1)
			assert.Equal(t, models.OutcomeSkipped, got[0].Outcome)
			assert.Equal(t, tt.reason, got[0].Reason)
		})
	}
}

func TestInsertAll_UnsupportedProviderNeverOpensPanel(t *testing.T) {
	f := newFixture()
	newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{"https://shop.example.com/p/1"})
	assert.Equal(t, 0, f.entry.Clicks)
}

func TestInsertAll_PanelNotOpenedPressesEscape(t *testing.T) {
	f := newFixture()
	f.frameOnOpen = false
	newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{jdOne})
	assert.Contains(t, f.page.Entries(), "press:Escape")
}

func TestInsertAll_StopsWhenContextEnds(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got := newInserter(t).InsertAll(ctx, f.page, f.editor, []string{jdOne, jdTwo})
	assert.Empty(t, got)
}

func TestInsertAll_CloseFallsBackToEscape(t *testing.T) {
	f := newFixture()
	f.results[jdOne] = result{html: oneRow, text: "商品A 添加"}
	f.frame.Remove(`button[aria-label="关闭"]`)

	got := newInserter(t).InsertAll(context.Background(), f.page, f.editor, []string{jdOne})
	require.Len(t, got, 1)
	assert.True(t, got[0].Inserted())
	assert.Contains(t, f.page.Entries(), "press:Escape")
	// the panel frame was still visible after Escape, so the entry was toggled again
	assert.Equal(t, 2, f.entry.Clicks)
}

func TestAnalyze(t *testing.T) {
	a, err := newAnalyzer(config.DefaultSelectors())
	require.NoError(t, err)

	tests := []struct {
		name string
		text string
		html string
		want Analysis
	}{
		{"single row", "", oneRow, Analysis{Candidates: 1}},
		{"two rows", "", twoRows, Analysis{Candidates: 2}},
		{"add text must match", "", noRows, Analysis{Candidates: 0}},
		{"no match without rows", "没有找到相关商品", "<p>没有找到相关商品</p>", Analysis{NoMatch: true}},
		{"marker inside a row", "商品A 暂无优惠券 添加", oneRow, Analysis{Candidates: 1}},
		{
			name: "hidden rows ignored",
			html: `<ul><li><button>添加</button></li><li style="display: none"><button>添加</button></li><li hidden><button>添加</button></li></ul>`,
			want: Analysis{Candidates: 1},
		},
		{
			name: "only hidden rows falls back to marker",
			text: "暂无相关商品",
			html: `<ul><li aria-hidden="true"><button>添加</button></li></ul>`,
			want: Analysis{NoMatch: true},
		},
		{
			name: "nested rows counted once",
			html: `<div class="GoodsList"><div class="GoodsItem"><li><button>添加</button><button> 添加 </button></li></div></div>`,
			want: Analysis{Candidates: 1},
		},
		{
			name: "button outside any row",
			html: `<section><button>添加</button></section>`,
			want: Analysis{Candidates: 1},
		},
		{
			name: "table rows",
			html: `<table><tr><td>A</td><td><button>添加</button></td></tr><tr><td>B</td><td><button>添加</button></td></tr></table>`,
			want: Analysis{Candidates: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Analyze(tt.text, tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

package vanilla_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-matchcard/pkg/card"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/render"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-matchcard/pkg/testsupport"
)

var fixedClock = func() time.Time { return time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC) }

func newRenderer(t *testing.T, options ...vanilla.Option) *vanilla.Renderer {
	t.Helper()
	renderer, err := vanilla.New(append([]vanilla.Option{vanilla.WithClock(fixedClock)}, options...)...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return renderer
}

func anyValues(values map[string]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}
	return out
}

func TestRender_FormPageInDeclaredOrder(t *testing.T) {
	fx := testsupport.Registration(t)
	renderer := newRenderer(t)

	output, err := renderer.Render(context.Background(), fx.Form, render.RenderOptions{
		Locale:     "zh-CN",
		Translator: fx.Catalog,
		Values:     anyValues(registrant.Defaults()),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(output)

	for _, want := range []string{
		`<title>个人信息登记表 · 和美缘婚恋网</title>`,
		`enctype="multipart/form-data"`,
		`method="post" action="/register"`,
		`<h3>基本信息</h3>`,
		`<button type="submit" class="mc-button">保存登记信息</button>`,
		`和美缘婚恋网 © 2026 版权所有`,
		`href="/assets/matchcard.css"`,
		`id="mc-gender-male" name="gender" value="male" checked`,
		`capture="environment"`,
		`<span class="mc-unit">岁</span>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("form page missing %q", want)
		}
	}

	last := -1
	for _, field := range fx.Form.Fields {
		idx := strings.Index(html, `data-field="`+field.Name+`"`)
		if idx < 0 {
			t.Fatalf("field %q not rendered", field.Name)
		}
		if idx < last {
			t.Fatalf("field %q rendered out of order", field.Name)
		}
		last = idx
	}
}

func TestRender_InlineErrorsAndHiddenFields(t *testing.T) {
	fx := testsupport.Registration(t)
	renderer := newRenderer(t)

	values := testsupport.ValidValues()
	values[registrant.FieldAge] = "16"

	output, err := renderer.Render(context.Background(), fx.Form, render.RenderOptions{
		Locale:       "zh-CN",
		Translator:   fx.Catalog,
		Values:       anyValues(values),
		Errors:       map[string][]string{registrant.FieldAge: {"年龄必须大于18岁"}},
		FormErrors:   []string{"请检查并修正标记的内容"},
		HiddenFields: map[string]string{"csrf_token": "tok-123"},
		Notice:       "保存失败，请重试",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(output)

	for _, want := range []string{
		`<p class="mc-field-error" id="mc-age-error">年龄必须大于18岁</p>`,
		`aria-invalid="true" aria-describedby="mc-age-error"`,
		`is-invalid" data-field="age"`,
		`<li>请检查并修正标记的内容</li>`,
		`<input type="hidden" name="csrf_token" value="tok-123">`,
		`role="status">保存失败，请重试</div>`,
		`value="李小明"`,
		`value="16"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("form page missing %q", want)
		}
	}
	if strings.Count(html, `class="mc-field-error"`) != 1 {
		t.Fatalf("expected a single inline error")
	}
}

func TestRender_PhotoPreviewFromDataURL(t *testing.T) {
	fx := testsupport.Registration(t)
	renderer := newRenderer(t)

	dataURL := "data:image/jpeg;base64,AAAA"
	output, err := renderer.Render(context.Background(), fx.Form, render.RenderOptions{
		Locale:     "zh-CN",
		Translator: fx.Catalog,
		Values:     map[string]any{registrant.FieldPhoto: dataURL},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(output)
	if !strings.Contains(html, `class="mc-photo-preview" src="`+dataURL+`"`) {
		t.Fatalf("photo preview missing")
	}
	if !strings.Contains(html, "已选择照片，可重新上传替换") {
		t.Fatalf("photo hint missing")
	}
}

func TestRender_ThemeVariables(t *testing.T) {
	fx := testsupport.Registration(t)
	selector, err := render.NewThemeSelector(render.DefaultThemeName, "classic", render.DefaultThemeManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}
	selection, err := selector.Select("", "")
	if err != nil {
		t.Fatalf("select: %v", err)
	}

	output, err := newRenderer(t).Render(context.Background(), fx.Form, render.RenderOptions{
		Locale:     "en",
		Translator: fx.Catalog,
		Theme:      render.ThemeConfig(selection),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(output)
	if !strings.Contains(html, "--primary: #be123c;") {
		t.Fatalf("variant token missing from css vars")
	}
	if !strings.Contains(html, `<html lang="en">`) {
		t.Fatalf("locale not applied to document")
	}
}

func TestRenderSummary_ShowsValuesVerbatim(t *testing.T) {
	fx := testsupport.Registration(t)
	opts := render.RenderOptions{Locale: "zh-CN", Translator: fx.Catalog}
	form := fx.Form.Clone()
	render.LocalizeFormModel(&form, opts)

	reg := registrant.Registrant{
		Name:                "王芳",
		Gender:              registrant.GenderFemale,
		Age:                 28,
		Height:              162,
		Weight:              50.5,
		Phone:               "13912345678",
		Education:           registrant.EducationMaster,
		Occupation:          "教师",
		Income:              registrant.Income10to20k,
		MarriageStatus:      registrant.MarriageSingle,
		AcceptLongDistance:  registrant.No,
		House:               registrant.Yes,
		Car:                 registrant.No,
		Location:            "杭州",
		Description:         "性格开朗，喜欢读书和烘焙。\n周末常去爬山。",
		PartnerRequirements: "有责任心 & 热爱生活。",
	}
	view := card.NewView(reg, form, card.ViewOptions{
		Render:   opts,
		PhotoURL: "data:image/jpeg;base64,AAAA",
		Now:      time.Date(2026, 3, 8, 14, 30, 0, 0, time.UTC),
	})

	hidden := reg.Values()
	hidden["csrf_token"] = "tok-9"
	opts.HiddenFields = hidden

	output, err := newRenderer(t).RenderSummary(context.Background(), vanilla.Summary{
		Card: view,
		Contact: vanilla.Contact{
			Name:      "李老师",
			WeChat:    "hemei520",
			QRCodeURL: "/assets/qr.png",
			DeepLink:  "weixin://dl/chat?hemei520",
		},
	}, opts)
	if err != nil {
		t.Fatalf("render summary: %v", err)
	}
	html := string(output)

	for _, want := range []string{
		`<h3 class="mc-card-name">王芳</h3>`,
		`女 | 28岁 | 杭州`,
		`<dd>162cm / 50.5kg</dd>`,
		`<dd>13912345678</dd>`,
		`<dd>硕士</dd>`,
		`<dd>教师</dd>`,
		`性格开朗，喜欢读书和烘焙。<br>周末常去爬山。`,
		`有责任心 &amp; 热爱生活。`,
		`登记日期: 2026-03-08 14:30`,
		`action="/register/export"`,
		`href="/reset"`,
		`<input type="hidden" name="csrf_token" value="tok-9">`,
		`<input type="hidden" name="phone" value="13912345678">`,
		`微信号: hemei520`,
		`href="weixin://dl/chat?hemei520"`,
		`>保存到相册</button>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderSummary_FreeTextMarkupShownAsText(t *testing.T) {
	fx := testsupport.Registration(t)
	opts := render.RenderOptions{Locale: "zh-CN", Translator: fx.Catalog}
	form := fx.Form.Clone()
	render.LocalizeFormModel(&form, opts)

	reg := registrant.Registrant{
		Name:                "李小明",
		Gender:              registrant.GenderMale,
		Age:                 30,
		Location:            "上海",
		Description:         "I love <cats> and a<b> too",
		PartnerRequirements: "需要 <strong>真诚</strong> 的人",
	}
	view := card.NewView(reg, form, card.ViewOptions{Render: opts, Now: fixedClock()})

	output, err := newRenderer(t).RenderSummary(context.Background(), vanilla.Summary{Card: view}, opts)
	if err != nil {
		t.Fatalf("render summary: %v", err)
	}
	html := string(output)

	for _, want := range []string{
		`I love &lt;cats&gt; and a&lt;b&gt; too`,
		`需要 &lt;strong&gt;真诚&lt;/strong&gt; 的人`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("summary missing %q", want)
		}
	}
	if strings.Contains(html, "<strong>") || strings.Contains(html, "<cats>") {
		t.Fatalf("free text markup rendered as HTML")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	fx := testsupport.Registration(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRenderer(t).Render(ctx, fx.Form, render.RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRender_UnknownWidget(t *testing.T) {
	fx := testsupport.Registration(t)
	renderer := newRenderer(t, vanilla.WithComponentRegistry(components.New()))

	_, err := renderer.Render(context.Background(), fx.Form, render.RenderOptions{})
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Fatalf("expected unregistered component error, got %v", err)
	}
}

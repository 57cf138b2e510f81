package registration_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-matchcard"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/testsupport"
)

var registeredAt = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, options ...registration.Option) *registration.Service {
	t.Helper()
	fx := testsupport.Registration(t)
	base := []registration.Option{registration.WithClock(func() time.Time { return registeredAt })}
	svc, err := registration.New(context.Background(), matchcard.NewOrchestrator(), fx.Catalog, append(base, options...)...)
	require.NoError(t, err)
	return svc
}

func samplePhoto(t *testing.T) photo.Photo {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p, err := photo.Decode(context.Background(), &buf)
	require.NoError(t, err)
	return p
}

func submission(t *testing.T) registration.Submission {
	values := testsupport.ValidValues()
	delete(values, registrant.FieldPhoto)
	return registration.Submission{Locale: "zh-CN", Values: values, Photo: samplePhoto(t)}
}

func TestService_FormUsesDefaults(t *testing.T) {
	svc := newService(t)

	page, err := svc.Form(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, "zh-CN", page.Options.Locale)
	assert.Equal(t, "25", page.Options.Values[registrant.FieldAge])
	assert.Equal(t, "male", page.Options.Values[registrant.FieldGender])
	_, hasName := page.Options.Values[registrant.FieldName]
	assert.False(t, hasName, "text fields start empty")

	name, ok := page.Form.Field(registrant.FieldName)
	require.True(t, ok)
	assert.Equal(t, "姓名", name.Label)

	reset, err := svc.Reset(context.Background(), "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, page.Options.Values, reset.Options.Values)
}

func TestService_SubmitValid(t *testing.T) {
	svc := newService(t)

	out, err := svc.Submit(context.Background(), submission(t))
	require.NoError(t, err)
	require.True(t, out.Valid, "errors: %v", out.Errors)

	assert.Equal(t, "李小明", out.Registrant.Name)
	assert.Equal(t, 30, out.Registrant.Age)
	assert.Equal(t, 68.5, out.Registrant.Weight)
	assert.Equal(t, "男 | 30岁 | 上海", out.Card.Headline)
	assert.True(t, strings.HasPrefix(out.Card.PhotoURL, "data:image/jpeg;base64,"))
	assert.Equal(t, "2026-05-20 10:00", out.Card.Timestamp.Value)

	hidden := out.HiddenFields()
	assert.Equal(t, "13812345678", hidden[registrant.FieldPhone])
	assert.Equal(t, out.Photo.DataURL(), hidden[registration.HiddenPhotoData])
	assert.Equal(t, "2026-05-20T10:00:00Z", hidden[registration.HiddenRegisteredAt])
}

func TestService_SubmitRequiresPhoto(t *testing.T) {
	svc := newService(t)

	sub := submission(t)
	sub.Photo = photo.Photo{}
	out, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.False(t, out.Valid)
	assert.Equal(t, []string{"请上传您的人像照片"}, out.Errors[registrant.FieldPhoto])
	assert.Equal(t, []string{"请检查并修正标记的内容"}, out.FormErrors)
	assert.Equal(t, out.Errors, out.Options.Errors)
}

func TestService_SubmitReportsUploadErrors(t *testing.T) {
	svc := newService(t)

	sub := submission(t)
	sub.Photo = photo.Photo{}
	sub.PhotoErr = photo.ErrTooLarge
	out, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, []string{"照片文件过大，请选择较小的图片"}, out.Errors[registrant.FieldPhoto])
}

func TestService_SubmitKeepsInvalidValues(t *testing.T) {
	svc := newService(t)

	sub := submission(t)
	sub.Values[registrant.FieldAge] = "16"
	sub.Values[registrant.FieldHeight] = "230"
	out, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.False(t, out.Valid)
	assert.Equal(t, []string{"年龄必须大于18岁"}, out.Errors[registrant.FieldAge])
	assert.Equal(t, []string{"身高不能超过220cm"}, out.Errors[registrant.FieldHeight])
	assert.Equal(t, "16", out.Options.Values[registrant.FieldAge])
	assert.Equal(t, sub.Photo.DataURL(), out.Values[registrant.FieldPhoto], "photo survives the re-render")
	assert.Empty(t, out.Registrant.Name)
}

func TestService_RestoreRoundTrip(t *testing.T) {
	svc := newService(t)

	first, err := svc.Submit(context.Background(), submission(t))
	require.NoError(t, err)
	require.True(t, first.Valid)

	restored := svc.Restore("zh-CN", first.HiddenFields())
	require.NoError(t, restored.PhotoErr)
	assert.True(t, restored.RegisteredAt.Equal(registeredAt))

	second, err := svc.Submit(context.Background(), restored)
	require.NoError(t, err)
	require.True(t, second.Valid)
	assert.Equal(t, first.Registrant, second.Registrant)

	broken := first.HiddenFields()
	broken[registration.HiddenPhotoData] = "data:image/jpeg;base64,bm90IGFuIGltYWdl"
	restored = svc.Restore("zh-CN", broken)
	assert.ErrorIs(t, restored.PhotoErr, photo.ErrUnsupportedType)
}

func TestService_RestoreKeepsLocalTimestamp(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*60*60)
	morning := time.Date(2026, 5, 20, 7, 30, 0, 0, shanghai)
	svc := newService(t, registration.WithClock(func() time.Time { return morning }))

	first, err := svc.Submit(context.Background(), submission(t))
	require.NoError(t, err)
	require.True(t, first.Valid)
	assert.Equal(t, "2026-05-20 07:30", first.Card.Timestamp.Value)

	hidden := first.HiddenFields()
	assert.Equal(t, "2026-05-20T07:30:00+08:00", hidden[registration.HiddenRegisteredAt])

	restored := svc.Restore("zh-CN", hidden)
	second, err := svc.Submit(context.Background(), restored)
	require.NoError(t, err)
	require.True(t, second.Valid)
	assert.Equal(t, "2026-05-20 07:30", second.Card.Timestamp.Value)

	exp, err := svc.Export(context.Background(), registration.ExportRequest{
		Locale:       "zh-CN",
		Registrant:   second.Registrant,
		Photo:        second.Photo,
		RegisteredAt: second.RegisteredAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "和美缘婚恋登记-李小明-2026-05-20.png", exp.Filename)

	// A page rendered before the offset was kept still lands in the local day.
	hidden[registration.HiddenRegisteredAt] = "2026-05-19T23:30:00Z"
	assert.Equal(t, "2026-05-20 07:30", svc.Restore("zh-CN", hidden).RegisteredAt.Format("2006-01-02 15:04"))
}

func TestService_Export(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := registration.NewMetrics(reg)
	svc := newService(t, registration.WithObserver(metrics))

	out, err := svc.Submit(context.Background(), submission(t))
	require.NoError(t, err)
	require.True(t, out.Valid)

	exp, err := svc.Export(context.Background(), registration.ExportRequest{
		Locale:       "zh-CN",
		Registrant:   out.Registrant,
		Photo:        out.Photo,
		RegisteredAt: out.RegisteredAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "和美缘婚恋登记-李小明-2026-05-20.png", exp.Filename)
	assert.Equal(t, "image/png", exp.ContentType)
	img, err := png.Decode(bytes.NewReader(exp.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Submissions.WithLabelValues("valid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Exports.WithLabelValues("ok")))
}

func TestService_ExportWithBrandAndFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := registration.NewMetrics(reg)
	svc := newService(t, registration.WithObserver(metrics), registration.WithBrand("hemei"))

	out, err := svc.Submit(context.Background(), submission(t))
	require.NoError(t, err)

	exp, err := svc.Export(context.Background(), registration.ExportRequest{Registrant: out.Registrant, Photo: out.Photo})
	require.NoError(t, err)
	assert.Equal(t, "hemei-李小明-2026-05-20.png", exp.Filename)

	_, err = svc.Export(context.Background(), registration.ExportRequest{Registrant: out.Registrant})
	assert.True(t, errors.Is(err, photo.ErrMissing))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Export(ctx, registration.ExportRequest{Registrant: out.Registrant, Photo: out.Photo})
	assert.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Exports.WithLabelValues("error")))
}

func TestService_InvalidSubmissionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := registration.NewMetrics(reg)
	svc := newService(t, registration.WithObserver(metrics))

	sub := submission(t)
	sub.Values[registrant.FieldPhone] = "12345"
	_, err := svc.Submit(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Submissions.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationFailures.WithLabelValues("phone", "pattern")))
}

package httpapi

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/goliatone/go-matchcard"
	"github.com/goliatone/go-matchcard/pkg/photo"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/registration"
	"github.com/goliatone/go-matchcard/pkg/renderers/vanilla"
	"github.com/goliatone/go-matchcard/pkg/testsupport"
)

const testToken = "tok-123"

var registeredAt = time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

type HandlerSuite struct {
	suite.Suite
	service  *registration.Service
	registry *prometheus.Registry
	router   http.Handler
	png      []byte
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = s.newService()
	s.registry = prometheus.NewRegistry()
	s.router = s.newRouter(s.service,
		WithMetrics(NewMetrics(s.registry)),
		WithGatherer(s.registry),
		WithContact(vanilla.Contact{Name: "李老师", WeChat: "hemei520"}),
	)
	s.png = samplePNG(s.T(), 64, 48)
}

func (s *HandlerSuite) newService(options ...registration.Option) *registration.Service {
	fx := testsupport.Registration(s.T())
	base := []registration.Option{registration.WithClock(func() time.Time { return registeredAt })}
	svc, err := registration.New(context.Background(), matchcard.NewOrchestrator(), fx.Catalog, append(base, options...)...)
	s.Require().NoError(err)
	return svc
}

func (s *HandlerSuite) newRouter(svc *registration.Service, options ...Option) http.Handler {
	pages, err := vanilla.New(vanilla.WithClock(func() time.Time { return registeredAt }))
	s.Require().NoError(err)
	h, err := New(svc, pages, options...)
	s.Require().NoError(err)
	return NewRouter(h)
}

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 190, G: 18, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func registrationValues() map[string]string {
	values := testsupport.ValidValues()
	delete(values, registrant.FieldPhoto)
	return values
}

// multipartRequest builds POST /register with the values, the CSRF pair and
// an optional photo part.
func (s *HandlerSuite) multipartRequest(values map[string]string, photoData []byte) *http.Request {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range values {
		s.Require().NoError(writer.WriteField(key, value))
	}
	s.Require().NoError(writer.WriteField(csrfField, testToken))
	if photoData != nil {
		part, err := writer.CreateFormFile(registrant.FieldPhoto, "me.png")
		s.Require().NoError(err)
		_, err = part.Write(photoData)
		s.Require().NoError(err)
	}
	// The unused gallery input posts an empty part.
	_, err := writer.CreateFormFile(registrant.FieldPhoto, "")
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/register", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: testToken})
	return req
}

func (s *HandlerSuite) exportRequest(values map[string]string) *http.Request {
	form := url.Values{}
	for key, value := range values {
		form.Set(key, value)
	}
	form.Set(csrfField, testToken)
	req := httptest.NewRequest(http.MethodPost, "/register/export", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: testToken})
	return req
}

func (s *HandlerSuite) serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// validHidden submits a valid registration through the service and returns
// what the summary page would post back.
func (s *HandlerSuite) validHidden() map[string]string {
	portrait, err := photo.Decode(context.Background(), bytes.NewReader(s.png))
	s.Require().NoError(err)
	out, err := s.service.Submit(context.Background(), registration.Submission{
		Locale: "zh-CN",
		Values: registrationValues(),
		Photo:  portrait,
	})
	s.Require().NoError(err)
	s.Require().True(out.Valid)
	return out.HiddenFields()
}

func (s *HandlerSuite) TestFormPage() {
	rec := s.serve(s.router, httptest.NewRequest(http.MethodGet, "/", nil))

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Header().Get("Content-Type"), "text/html")
	s.NotEmpty(rec.Header().Get(RequestIDHeader))
	body := rec.Body.String()
	s.Contains(body, "个人信息登记表")
	s.Contains(body, `<html lang="zh-CN">`)

	var token string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == csrfCookie {
			token = cookie.Value
			s.True(cookie.HttpOnly)
		}
	}
	s.Require().NotEmpty(token)
	s.Contains(body, `<input type="hidden" name="csrf_token" value="`+token+`">`)
}

func (s *HandlerSuite) TestFormPageLocale() {
	s.Run("accept language", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		rec := s.serve(s.router, req)
		s.Contains(rec.Body.String(), `<html lang="en">`)
	})

	s.Run("query wins", func() {
		req := httptest.NewRequest(http.MethodGet, "/?lang=zh-cn", nil)
		req.Header.Set("Accept-Language", "en")
		rec := s.serve(s.router, req)
		s.Contains(rec.Body.String(), `<html lang="zh-CN">`)
	})

	s.Run("unsupported falls back", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "fr-FR")
		rec := s.serve(s.router, req)
		s.Contains(rec.Body.String(), `<html lang="zh-CN">`)
	})
}

func (s *HandlerSuite) TestRequestIDPropagates() {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := s.serve(s.router, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal(id, rec.Header().Get(RequestIDHeader))
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}

func (s *HandlerSuite) TestRegisterValidRendersSummary() {
	rec := s.serve(s.router, s.multipartRequest(registrationValues(), s.png))

	s.Require().Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Contains(body, `<h3 class="mc-card-name">李小明</h3>`)
	s.Contains(body, "男 | 30岁 | 上海")
	s.Contains(body, `name="photo_data" value="data:image/jpeg;base64,`)
	s.Contains(body, `name="registered_at" value="2026-05-20T10:00:00Z"`)
	s.Contains(body, `<input type="hidden" name="csrf_token" value="`+testToken+`">`)
	s.Contains(body, "微信号: hemei520")
}

func (s *HandlerSuite) TestRegisterRequiresPhoto() {
	rec := s.serve(s.router, s.multipartRequest(registrationValues(), nil))

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	s.Contains(body, "请上传您的人像照片")
	s.Contains(body, "请检查并修正标记的内容")
	s.Contains(body, `value="李小明"`)
}

func (s *HandlerSuite) TestRegisterInvalidKeepsPhoto() {
	values := registrationValues()
	values[registrant.FieldAge] = "16"
	rec := s.serve(s.router, s.multipartRequest(values, s.png))

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	s.Contains(body, "年龄必须大于18岁")
	s.Contains(body, `value="16"`)
	s.Contains(body, `name="photo_data" value="data:image/jpeg;base64,`)
	s.Contains(body, `class="mc-photo-preview"`)
	s.NotContains(body, "请上传您的人像照片")
}

func (s *HandlerSuite) TestRegisterRejectsBadUploads() {
	s.Run("unsupported type", func() {
		rec := s.serve(s.router, s.multipartRequest(registrationValues(), []byte("plain text, not a picture")))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "仅支持 JPG、PNG、GIF、WebP 格式的图片")
	})

	s.Run("photo over service limit", func() {
		svc := s.newService(registration.WithPhotoOptions(photo.WithMaxBytes(16)))
		router := s.newRouter(svc)
		rec := s.serve(router, s.multipartRequest(registrationValues(), s.png))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "照片文件过大，请选择较小的图片")
	})

	s.Run("body over upload limit", func() {
		router := s.newRouter(s.service, WithMaxUploadBytes(1))
		huge := bytes.Repeat([]byte{0xff}, formOverhead+1024)
		rec := s.serve(router, s.multipartRequest(registrationValues(), huge))
		s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
		s.Contains(rec.Body.String(), "照片文件过大，请选择较小的图片")
	})
}

func (s *HandlerSuite) TestRegisterRejectsCSRFMismatch() {
	req := s.multipartRequest(registrationValues(), s.png)
	req.Header.Del("Cookie")
	req.AddCookie(&http.Cookie{Name: csrfCookie, Value: "other"})
	rec := s.serve(s.router, req)

	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "页面已过期，请重新提交")
	s.NotContains(rec.Body.String(), "mc-card-name")
}

func (s *HandlerSuite) TestExportReturnsPNG() {
	rec := s.serve(s.router, s.exportRequest(s.validHidden()))

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	disposition := rec.Header().Get("Content-Disposition")
	s.True(strings.HasPrefix(disposition, "attachment;"))
	s.Contains(disposition, "filename*=UTF-8''"+url.PathEscape("和美缘婚恋登记-李小明-2026-05-20.png"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	s.Require().NoError(err)
	s.Equal(800, img.Bounds().Dx())
}

func (s *HandlerSuite) TestExportRevalidates() {
	s.Run("tampered value", func() {
		hidden := s.validHidden()
		hidden[registrant.FieldPhone] = "123"
		rec := s.serve(s.router, s.exportRequest(hidden))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
		s.Contains(rec.Body.String(), "找不到要保存的内容")
	})

	s.Run("missing photo", func() {
		hidden := s.validHidden()
		delete(hidden, registration.HiddenPhotoData)
		rec := s.serve(s.router, s.exportRequest(hidden))
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *HandlerSuite) TestExportFailureShowsNotice() {
	hidden := s.validHidden()
	portrait, err := photo.FromDataURL(hidden[registration.HiddenPhotoData])
	s.Require().NoError(err)
	truncated := photo.Photo{ContentType: portrait.ContentType, Data: portrait.Data[:len(portrait.Data)/2]}
	hidden[registration.HiddenPhotoData] = truncated.DataURL()

	rec := s.serve(s.router, s.exportRequest(hidden))

	s.Equal(http.StatusInternalServerError, rec.Code)
	body := rec.Body.String()
	s.Contains(body, "保存失败，请重试")
	s.Contains(body, `<h3 class="mc-card-name">李小明</h3>`)
	s.Contains(body, `action="/register/export"`)
}

func (s *HandlerSuite) TestRateLimit() {
	router := s.newRouter(s.service, WithRateLimit(1, 1))

	first := s.serve(router, s.multipartRequest(registrationValues(), s.png))
	s.Equal(http.StatusOK, first.Code)

	second := s.serve(router, s.multipartRequest(registrationValues(), s.png))
	s.Equal(http.StatusTooManyRequests, second.Code)
	s.Contains(second.Body.String(), "操作过于频繁，请稍后再试")

	// GET routes are not limited.
	s.Equal(http.StatusOK, s.serve(router, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func (s *HandlerSuite) TestResetRedirects() {
	rec := s.serve(s.router, httptest.NewRequest(http.MethodGet, "/reset?lang=en", nil))

	s.Equal(http.StatusSeeOther, rec.Code)
	s.Equal("/?lang=en", rec.Header().Get("Location"))
}

func (s *HandlerSuite) TestAssetsAndMetrics() {
	rec := s.serve(s.router, httptest.NewRequest(http.MethodGet, "/assets/matchcard.css", nil))
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "--")

	s.serve(s.router, s.multipartRequest(registrationValues(), nil))
	rec = s.serve(s.router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, rec.Code)
	body := rec.Body.String()
	s.Contains(body, `matchcard_http_requests_total{method="GET",route="/assets/*",status="200"} 1`)
	s.Contains(body, `matchcard_http_requests_total{method="POST",route="/register",status="422"} 1`)
}

func (s *HandlerSuite) TestNewRequiresDependencies() {
	pages, err := vanilla.New()
	s.Require().NoError(err)

	_, err = New(nil, pages)
	s.Error(err)
	_, err = New(s.service, nil)
	s.Error(err)
	_, err = New(s.service, pages, WithLocales("not a locale!"))
	s.Error(err)
}

func TestContentDisposition(t *testing.T) {
	got := contentDisposition(`和美-a"b.png`)
	want := `attachment; filename="__-a_b.png"; filename*=UTF-8''` + url.PathEscape(`和美-a"b.png`)
	if got != want {
		t.Fatalf("contentDisposition = %q, want %q", got, want)
	}
}

package handler

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"prestalab/portal/internal/model"
	"prestalab/portal/internal/service"
	"prestalab/portal/internal/service/gateway"
	"prestalab/portal/internal/session"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Raw HTML in suggestions is escaped since WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Banner is the coloured message shown above a page.
type Banner struct {
	Kind string // ok, error or info
	Text string
}

func okBanner(text string) *Banner   { return &Banner{Kind: "ok", Text: text} }
func infoBanner(text string) *Banner { return &Banner{Kind: "info", Text: text} }
func errBanner(text string) *Banner  { return &Banner{Kind: "error", Text: text} }

type page struct {
	Title    string
	Active   string
	Identity session.Identity
	Banner   *Banner
	Data     any
}

var baseFuncs = template.FuncMap{
	"clp":      formatCLP,
	"datetime": formatTimestamp,
	"truncate": truncate,
	"stock": func(n *int) string {
		if n == nil {
			return "—"
		}
		return strconv.Itoa(*n)
	},
	"markdown": func(md string) template.HTML {
		var buf bytes.Buffer
		if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
			return template.HTML(template.HTMLEscapeString(md))
		}
		return template.HTML(buf.String())
	},
	"add": func(a, b int) int { return a + b },
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, p page) {
	h.renderStatus(w, r, http.StatusOK, name, p)
}

// parsePages parses every page together with the layout. csrfField is a
// placeholder here and is bound per request in renderStatus.
func parsePages() (map[string]*template.Template, error) {
	names, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, path := range names {
		name := strings.TrimPrefix(path, "templates/")
		if name == "layout.html" {
			continue
		}
		tpl, err := template.New("layout.html").
			Funcs(baseFuncs).
			Funcs(template.FuncMap{"csrfField": func() template.HTML { return "" }}).
			ParseFS(templatesFS, "templates/layout.html", path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[name] = tpl
	}
	return pages, nil
}

func (h *Handler) renderStatus(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if p.Identity.Token == "" {
		if id, ok := session.FromContext(r.Context()); ok {
			p.Identity = id
		}
	}

	base, ok := h.pages[name]
	if !ok {
		internalError(w, r, fmt.Errorf("unknown page %s", name))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, r, fmt.Errorf("failed to clone %s: %w", name, err))
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, p); err != nil {
		internalError(w, r, fmt.Errorf("failed to render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// failure turns err into a banner. When the gateway rejected the session
// token the user is logged out and redirected instead, and ok is false.
func (h *Handler) failure(w http.ResponseWriter, r *http.Request, err error) (banner *Banner, ok bool) {
	if gateway.IsUnauthorized(err) {
		slog.Warn("auth_rejected", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		h.forceLogout(w, r)
		return nil, false
	}
	var vErr *service.ValidationError
	if !errors.As(err, &vErr) {
		slog.Error("request_failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err.Error())
	}
	return errBanner(errorText(err)), true
}

func (h *Handler) forceLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		slog.Error("logout_failed", "error", err.Error())
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func errorText(err error) string {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var queued *service.AlreadyQueuedError
	if errors.As(err, &queued) {
		return queued.Error()
	}
	return gateway.Message(err)
}

// formatCLP formats an amount as Chilean pesos: no decimals, dots between thousands.
func formatCLP(v float64) string {
	n := int64(math.Round(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}

func formatTimestamp(s string) string {
	if s == "" {
		return "—"
	}
	if t, ok := model.ParseTimestamp(s); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("02-01-2006")
		}
		return t.Format("02-01-2006 15:04")
	}
	return s
}

func truncate(n int, s string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func formInt(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(r.FormValue(key)), 10, 64)
	return n
}

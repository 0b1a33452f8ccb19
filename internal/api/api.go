// Package api serves shell state to the presentation layer over HTTP and
// accepts the workspace commands it issues. Reads and writes both run on the
// shell loop via Dispatch, so the API never touches state concurrently.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roscale/veshell-prototype/internal/build"
	"github.com/roscale/veshell-prototype/internal/bus"
	"github.com/roscale/veshell-prototype/internal/shell"
	"github.com/roscale/veshell-prototype/internal/surface"
	"github.com/roscale/veshell-prototype/internal/wm"
	"github.com/roscale/veshell-prototype/internal/workspace"
	"github.com/roscale/veshell-prototype/internal/xwayland"
	"github.com/roscale/veshell-prototype/pkg/chiext"
)

func NewServer(s *shell.Shell, b *bus.Bus, address string) *Server {
	srv := &Server{
		shell:   s,
		address: address,
		hub:     newEventHub(b),
	}

	r := chi.NewRouter()
	r.Use(chiext.Logger())

	r.Route("/api", func(r chi.Router) {
		r.Get("/build", srv.getBuild)
		r.Get("/workspace", srv.getWorkspace)
		r.Post("/workspace/focus", srv.postFocus)
		r.Post("/workspace/visible", srv.postVisible)
		r.Post("/workspace/close", srv.postCloseFocused)
		r.Get("/windows", srv.getWindows)
		r.Get("/windows/{id}", srv.getWindow)
		r.Get("/windows/{id}/dialogs", srv.getDialogs)
		r.Post("/windows/{id}/close", srv.postWindowClose)
		r.Post("/windows/{id}/resize", srv.postWindowResize)
		r.Get("/x11", srv.getX11)
		r.Get("/surfaces/{id}", srv.getSurface)
		r.Get("/events", srv.getEvents)
	})

	srv.router = r
	return srv
}

type Server struct {
	shell   *shell.Shell
	address string
	router  chi.Router
	hub     *bus.Hub[Event]
}

func (srv *Server) String() string {
	return "api"
}

// Serve implements suture.Service.
func (srv *Server) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:        srv.address,
		Handler:     srv.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errC := make(chan error, 1)
	go func() { errC <- httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func encode(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func encodeError(w http.ResponseWriter, status int, err error) {
	encode(w, status, map[string]string{"error": err.Error()})
}

type workspaceDTO struct {
	Tiles        []tileDTO `json:"tiles"`
	Focused      int       `json:"focused"`
	Visible      int       `json:"visible"`
	VisibleStart int       `json:"visible_start"`
	VisibleEnd   int       `json:"visible_end"`
}

type tileDTO struct {
	Kind   string `json:"kind"`
	Window string `json:"window,omitempty"`
}

func tileKind(kind workspace.EntryKind) string {
	if kind == workspace.EntryLauncher {
		return "launcher"
	}
	return "window"
}

func (srv *Server) getBuild(w http.ResponseWriter, r *http.Request) {
	encode(w, http.StatusOK, build.Current)
}

func (srv *Server) getWorkspace(w http.ResponseWriter, r *http.Request) {
	var dto workspaceDTO
	err := srv.shell.Dispatch(r.Context(), func() {
		ws := srv.shell.Workspace()
		for _, tile := range ws.Tiles() {
			dto.Tiles = append(dto.Tiles, tileDTO{Kind: tileKind(tile.Kind), Window: tile.Window})
		}
		dto.Focused = ws.FocusedIndex()
		dto.Visible = ws.VisibleLength()
		dto.VisibleStart, dto.VisibleEnd = ws.VisibleRange()
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	encode(w, http.StatusOK, dto)
}

func (srv *Server) postFocus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Index     *int   `json:"index"`
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		encodeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var opErr error
	err := srv.shell.Dispatch(r.Context(), func() {
		switch {
		case body.Index != nil:
			opErr = srv.shell.SetFocusedIndex(*body.Index)
		case body.Direction == "left":
			srv.shell.MoveFocus(false)
		case body.Direction == "right":
			srv.shell.MoveFocus(true)
		default:
			opErr = errors.New("api: index or direction required")
		}
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if opErr != nil {
		encodeError(w, http.StatusBadRequest, opErr)
		return
	}
	encode(w, http.StatusOK, nil)
}

func (srv *Server) postVisible(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Length int `json:"length"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		encodeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	err := srv.shell.Dispatch(r.Context(), func() {
		srv.shell.SetVisibleLength(body.Length)
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	encode(w, http.StatusOK, nil)
}

func (srv *Server) postCloseFocused(w http.ResponseWriter, r *http.Request) {
	var opErr error
	err := srv.shell.Dispatch(r.Context(), func() {
		opErr = srv.shell.CloseFocused(r.Context())
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if opErr != nil {
		encodeError(w, http.StatusBadRequest, opErr)
		return
	}
	encode(w, http.StatusOK, nil)
}

type windowDTO struct {
	ID      string      `json:"id"`
	Kind    string      `json:"kind"`
	AppID   string      `json:"app_id"`
	Title   string      `json:"title"`
	Surface *surface.ID `json:"surface,omitempty"`
	Parent  string      `json:"parent,omitempty"`
}

func windowToDTO(info wm.Info) windowDTO {
	return windowDTO{
		ID:      info.ID,
		Kind:    info.Kind.String(),
		AppID:   info.AppID,
		Title:   info.Title,
		Surface: info.Surface,
		Parent:  info.Parent,
	}
}

func (srv *Server) getWindows(w http.ResponseWriter, r *http.Request) {
	var dtos []windowDTO
	err := srv.shell.Dispatch(r.Context(), func() {
		for _, info := range srv.shell.Manager().Snapshot() {
			dtos = append(dtos, windowToDTO(info))
		}
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	encode(w, http.StatusOK, map[string]any{"items": dtos})
}

func (srv *Server) getWindow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var (
		dto   windowDTO
		opErr error
	)
	err := srv.shell.Dispatch(r.Context(), func() {
		info, err := srv.shell.Manager().Window(id)
		if err != nil {
			opErr = err
			return
		}
		dto = windowToDTO(info)
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if opErr != nil {
		encodeError(w, http.StatusNotFound, opErr)
		return
	}
	encode(w, http.StatusOK, map[string]any{"item": dto})
}

func (srv *Server) getDialogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dialogs []string
	err := srv.shell.Dispatch(r.Context(), func() {
		dialogs = srv.shell.Manager().Dialogs(id)
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	encode(w, http.StatusOK, map[string]any{"items": dialogs})
}

func (srv *Server) postWindowClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var opErr error
	err := srv.shell.Dispatch(r.Context(), func() {
		opErr = srv.shell.Manager().CloseWindow(r.Context(), id)
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if opErr != nil {
		encodeError(w, http.StatusNotFound, opErr)
		return
	}
	encode(w, http.StatusOK, nil)
}

func (srv *Server) postWindowResize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Width  uint32 `json:"width"`
		Height uint32 `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		encodeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var opErr error
	err := srv.shell.Dispatch(r.Context(), func() {
		opErr = srv.shell.Manager().ResizeWindow(r.Context(), id, body.Width, body.Height)
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if opErr != nil {
		encodeError(w, http.StatusNotFound, opErr)
		return
	}
	encode(w, http.StatusOK, nil)
}

func (srv *Server) getX11(w http.ResponseWriter, r *http.Request) {
	var infos []xwayland.Info
	err := srv.shell.Dispatch(r.Context(), func() {
		infos = srv.shell.Tracker().Snapshot()
	})
	if err != nil {
		encodeError(w, http.StatusServiceUnavailable, err)
		return
	}
	encode(w, http.StatusOK, map[string]any{"items": infos})
}

func (srv *Server) getSurface(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		encodeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	var dto struct {
		Ready  bool            `json:"ready"`
		Handle *surface.Handle `json:"handle,omitempty"`
		Found  bool            `json:"found"`
	}
	dispatchErr := srv.shell.Dispatch(r.Context(), func() {
		reg := srv.shell.Registry()
		dto.Found = reg.Has(surface.ID(id))
		dto.Ready = reg.IsReady(surface.ID(id))
		if handle, ok := reg.Texture(surface.ID(id)); ok {
			dto.Handle = &handle
		}
	})
	if dispatchErr != nil {
		encodeError(w, http.StatusServiceUnavailable, dispatchErr)
		return
	}
	if !dto.Found {
		encodeError(w, http.StatusNotFound, surface.ErrNotFound)
		return
	}
	encode(w, http.StatusOK, dto)
}

package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pthm/toybox/internal/logging"
)

// empty is what json-server answers for deletes and unknown ids.
var empty = map[string]any{}

// Handler serves the /toys routes over a Store.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewServer returns an echo instance serving store with CORS enabled, the
// way json-server does.
func NewServer(store *Store, logger *slog.Logger) *echo.Echo {
	logger = logging.OrNop(logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(logging.EchoRequestLogger(logger))
	e.Use(middleware.CORS())

	h := &Handler{store: store, logger: logger}
	h.Register(e.Group("/" + CollectionKey))
	return e
}

// Register mounts the collection routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.patch)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.List())
}

func (h *Handler) get(c echo.Context) error {
	r, err := h.store.Get(c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) create(c echo.Context) error {
	fields, err := decodeRecord(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	r, err := h.store.Create(fields)
	if err != nil {
		return h.fail(c, err)
	}
	h.logger.Info("toy created", "toy_id", idKey(r["id"]))
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) patch(c echo.Context) error {
	fields, err := decodeRecord(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	r, err := h.store.Patch(c.Param("id"), fields)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) delete(c echo.Context) error {
	if err := h.store.Delete(c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	h.logger.Info("toy deleted", "toy_id", c.Param("id"))
	return c.JSON(http.StatusOK, empty)
}

func (h *Handler) fail(c echo.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, empty)
	}
	h.logger.Error("store failure", "path", c.Path(), "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

// decodeRecord reads a JSON object, keeping numbers exact.
func decodeRecord(body io.Reader) (Record, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	fields := Record{}
	if len(bytes.TrimSpace(b)) == 0 {
		return fields, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, errors.New("body must be a JSON object")
	}
	return fields, nil
}

// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package rest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mlnoga/starcolor/internal/colormap"
	"github.com/mlnoga/starcolor/internal/elements"
	"github.com/mlnoga/starcolor/internal/ops"
	"github.com/mlnoga/starcolor/internal/render"
	"github.com/mlnoga/starcolor/internal/spectrum"
	"github.com/mlnoga/starcolor/web"
)

var (
	errBadRequest      = errors.New("bad request")
	errTooManyDisplays = errors.New("too many displays")
)

const (
	MaxStops      = 10000 // color stops per request
	MaxRasterSide = 4096  // width or height of a rendered image, in pixels
	MaxDisplays   = 1024  // live displays per server
)

// A REST server for spectra, colors and chart displays
type Server struct {
	ctx      *ops.Context
	engine   *gin.Engine
	mu       sync.Mutex
	displays map[string]*ops.Display
	maxDisp  int
}

// Creates a server for the given context. Requests are logged to the context log
func NewServer(c *ops.Context) *Server {
	s := &Server{ctx: c, displays: map[string]*ops.Display{}, maxDisp: MaxDisplays}
	r := gin.New()
	r.Use(gin.LoggerWithWriter(c.Log), gin.Recovery())

	r.GET("/", getIndex)
	r.StaticFS("/js", web.JavascriptFS())
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.GET("/color", getColor)
			v1.GET("/spectra", s.getSpectra)
			v1.GET("/spectra/*name", s.getSpectrum)
			v1.GET("/colorbar.png", s.getColorBarPNG)
			v1.GET("/star.png", s.getStarPNG)
			v1.GET("/plot.png", s.getPlotPNG)
			v1.GET("/elements", s.getElements)
			v1.GET("/elements/:symbol", s.getElement)
			v1.POST("/displays", s.postDisplay)
			v1.GET("/displays/:id", s.getDisplay)
			v1.PUT("/displays/:id", s.putDisplay)
			v1.DELETE("/displays/:id", s.deleteDisplay)
			v1.PUT("/displays/:id/elements/:symbol", s.putDisplayElement)
			v1.DELETE("/displays/:id/elements/:symbol", s.deleteDisplayElement)
		}
	}
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Serves on the given address until the listener fails
func Serve(c *ops.Context, addr string) error {
	fmt.Fprintf(c.Log, "Serving %s on %s\n", c.DataDir, addr)
	return NewServer(c).engine.Run(addr)
}

// Writes an error response, mapping missing data to 404 and invalid input to 400
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ops.ErrDisposed):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, ops.ErrPathNotAllowed),
		errors.Is(err, elements.ErrInvalidSymbol), errors.Is(err, render.ErrSize),
		errors.Is(err, spectrum.ErrRange):
		status = http.StatusBadRequest
	case errors.Is(err, errTooManyDisplays):
		status = http.StatusTooManyRequests
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func getIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
}

func getPing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

type colorQuery struct {
	Wavelength *float64 `form:"wl" binding:"required"`
}

type colorResponse struct {
	Wavelength float64      `json:"wavelength"`
	Color      colormap.RGB `json:"color"`
	Hex        string       `json:"hex"`
	CSS        string       `json:"css"`
	Visible    bool         `json:"visible"`
}

func getColor(c *gin.Context) {
	var q colorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest("%s", err))
		return
	}
	wl := *q.Wavelength
	if math.IsNaN(wl) || math.IsInf(wl, 0) {
		abortWithError(c, badRequest("wavelength %g", wl))
		return
	}
	col := colormap.WavelengthToRGB(wl)
	c.JSON(http.StatusOK, colorResponse{wl, col, col.Hex(), col.CSS(1), colormap.Visible(wl)})
}

// Color bar settings common to views and rasters
type viewQuery struct {
	Stops  *int     `form:"stops" json:"stops"`
	Min    *float64 `form:"min" json:"min"`
	Max    *float64 `form:"max" json:"max"`
	Renorm bool     `form:"renorm" json:"renorm"`
}

func (q viewQuery) options() (ops.ViewOptions, error) {
	opts := ops.DefaultViewOptions()
	cb := &opts.ColorBar
	if q.Stops != nil {
		if *q.Stops < 0 || *q.Stops > MaxStops {
			return opts, badRequest("stops %d not in 0..%d", *q.Stops, MaxStops)
		}
		cb.Stops = *q.Stops
	}
	if q.Min != nil {
		cb.Min = *q.Min
	}
	if q.Max != nil {
		cb.Max = *q.Max
	}
	if err := spectrum.CheckRange(cb.Min, cb.Max); err != nil {
		return opts, err
	}
	cb.LocalRenormalize = q.Renorm
	return opts, nil
}

func (s *Server) getSpectra(c *gin.Context) {
	names, err := s.ctx.ListSpectra()
	if err != nil {
		abortWithError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"spectra": names})
}

// loads the named spectrum and computes its view with the query settings
func (s *Server) view(name string, q viewQuery) (*ops.View, error) {
	if name == "" {
		return nil, badRequest("missing dataset name")
	}
	opts, err := q.options()
	if err != nil {
		return nil, err
	}
	sp, err := s.ctx.Spectrum(name)
	if err != nil {
		return nil, err
	}
	return ops.NewView(s.ctx, sp, opts)
}

func (s *Server) getSpectrum(c *gin.Context) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest("%s", err))
		return
	}
	v, err := s.view(strings.TrimPrefix(c.Param("name"), "/"), q)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type rasterQuery struct {
	viewQuery
	Name     string   `form:"name"`
	Width    int      `form:"width"`
	Height   int      `form:"height"`
	Radius   int      `form:"radius"`
	From     *float64 `form:"from"`
	To       *float64 `form:"to"`
	Elements string   `form:"elements"` // comma separated symbols
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Rejects rasters larger than MaxRasterSide in either direction
func checkRaster(width, height int) error {
	if width > MaxRasterSide || height > MaxRasterSide {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", render.ErrSize, width, height, MaxRasterSide)
	}
	return nil
}

func writePNG(c *gin.Context, img image.Image) {
	var buf bytes.Buffer
	if err := render.Encode(&buf, img, render.FormatPNG); err != nil {
		abortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, render.FormatPNG.ContentType(), buf.Bytes())
}

func (s *Server) bindRaster(c *gin.Context) (rasterQuery, *ops.View, bool) {
	var q rasterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, badRequest("%s", err))
		return q, nil, false
	}
	v, err := s.view(q.Name, q.viewQuery)
	if err != nil {
		abortWithError(c, err)
		return q, nil, false
	}
	return q, v, true
}

func (s *Server) getColorBarPNG(c *gin.Context) {
	q, v, ok := s.bindRaster(c)
	if !ok {
		return
	}
	w, h := orDefault(q.Width, 800), orDefault(q.Height, 40)
	if err := checkRaster(w, h); err != nil {
		abortWithError(c, err)
		return
	}
	img, err := render.ColorBar(v.ColorBar, w, h)
	if err != nil {
		abortWithError(c, err)
		return
	}
	writePNG(c, img)
}

func (s *Server) getStarPNG(c *gin.Context) {
	q, v, ok := s.bindRaster(c)
	if !ok {
		return
	}
	r := orDefault(q.Radius, 50)
	if err := checkRaster(2*r, 2*r); err != nil {
		abortWithError(c, err)
		return
	}
	img, err := render.Star(v.StarColor, r)
	if err != nil {
		abortWithError(c, err)
		return
	}
	writePNG(c, img)
}

func (s *Server) getPlotPNG(c *gin.Context) {
	q, v, ok := s.bindRaster(c)
	if !ok {
		return
	}
	opts := render.DefaultPlotOptions()
	opts.Width, opts.Height = orDefault(q.Width, opts.Width), orDefault(q.Height, opts.Height)
	if q.From != nil {
		opts.Min = *q.From
	}
	if q.To != nil {
		opts.Max = *q.To
	}
	if err := checkRaster(opts.Width, opts.Height); err != nil {
		abortWithError(c, err)
		return
	}
	if err := spectrum.CheckRange(opts.Min, opts.Max); err != nil {
		abortWithError(c, err)
		return
	}
	for _, sym := range strings.Split(q.Elements, ",") {
		if sym = strings.TrimSpace(sym); sym == "" {
			continue
		}
		lines, err := s.ctx.ElementLines(sym)
		if err != nil {
			abortWithError(c, err)
			return
		}
		v.Elements[sym] = lines
	}
	img, err := render.Plot(v, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	writePNG(c, img)
}

func (s *Server) getElements(c *gin.Context) {
	syms, err := s.ctx.Lines.Symbols()
	if err != nil {
		abortWithError(c, err)
		return
	}
	if syms == nil {
		syms = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"elements": syms})
}

func (s *Server) getElement(c *gin.Context) {
	sym := c.Param("symbol")
	lines, err := s.ctx.ElementLines(sym)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": sym, "lines": lines})
}

type displayResponse struct {
	ID   string    `json:"id"`
	View *ops.View `json:"view"`
}

type replaceRequest struct {
	Name string `json:"name" binding:"required"`
	viewQuery
}

func (s *Server) display(c *gin.Context) (*ops.Display, bool) {
	id := c.Param("id")
	s.mu.Lock()
	d, ok := s.displays[id]
	s.mu.Unlock()
	if !ok {
		abortWithError(c, fmt.Errorf("display %s: %w", id, os.ErrNotExist))
	}
	return d, ok
}

func (s *Server) postDisplay(c *gin.Context) {
	id := uuid.NewString()
	d := ops.NewDisplay(s.ctx, id)
	s.mu.Lock()
	if len(s.displays) >= s.maxDisp {
		s.mu.Unlock()
		abortWithError(c, fmt.Errorf("%w: %d live", errTooManyDisplays, s.maxDisp))
		return
	}
	s.displays[id] = d
	s.mu.Unlock()
	fmt.Fprintf(s.ctx.Log, "%s: display created\n", id)
	c.JSON(http.StatusCreated, displayResponse{ID: id})
}

func (s *Server) getDisplay(c *gin.Context) {
	d, ok := s.display(c)
	if !ok {
		return
	}
	v, err := d.View()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, displayResponse{d.ID, v})
}

func (s *Server) putDisplay(c *gin.Context) {
	d, ok := s.display(c)
	if !ok {
		return
	}
	var req replaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest("%s", err))
		return
	}
	opts, err := req.options()
	if err != nil {
		abortWithError(c, err)
		return
	}
	v, err := d.Replace(req.Name, opts)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, displayResponse{d.ID, v})
}

func (s *Server) deleteDisplay(c *gin.Context) {
	d, ok := s.display(c)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.displays, d.ID)
	s.mu.Unlock()
	d.Dispose()
	fmt.Fprintf(s.ctx.Log, "%s: display disposed\n", d.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) setDisplayElement(c *gin.Context, on bool) {
	d, ok := s.display(c)
	if !ok {
		return
	}
	v, err := d.SetElement(c.Param("symbol"), on)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, displayResponse{d.ID, v})
}

func (s *Server) putDisplayElement(c *gin.Context)    { s.setDisplayElement(c, true) }
func (s *Server) deleteDisplayElement(c *gin.Context) { s.setDisplayElement(c, false) }

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/pkg/utils"
	"github.com/davicafu/hexaquery/shared/platform/query"
	"github.com/davicafu/hexaquery/shared/platform/querystring"
)

// RecordHandler traduce peticiones estilo PostgREST a operaciones del
// RecordService. Los nombres de campo se convierten con names en ambos
// sentidos.
type RecordHandler[C any] struct {
	service *application.RecordService[C]
	names   querystring.NameMapper
	log     *zap.Logger
}

func NewRecordHandler[C any](service *application.RecordService[C], names querystring.NameMapper, log *zap.Logger) *RecordHandler[C] {
	return &RecordHandler[C]{service: service, names: names, log: log}
}

// ---------------- Handlers ----------------

// ListResources endpoint GET /api/
func (h *RecordHandler[C]) ListResources(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Resources())
}

// Where endpoint GET /api/:resource
func (h *RecordHandler[C]) Where(c *gin.Context) {
	list, err := h.service.Where(c.Request.Context(), c.Param("resource"), h.readQuery(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Range", ContentRange(list.Meta))
	c.JSON(http.StatusOK, h.toWire(list.Records))
}

// Count endpoint HEAD /api/:resource. Solo cabeceras: Content-Range lleva
// el rango de la página y el total sin paginar.
func (h *RecordHandler[C]) Count(c *gin.Context) {
	ctx, resource, q := c.Request.Context(), c.Param("resource"), h.readQuery(c)
	length, err := h.service.Count(ctx, resource, q)
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	total, err := h.service.Count(ctx, resource, q.WithoutPagination())
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	offset, _ := q.Offset()
	c.Header("Content-Range", ContentRange(domain.Meta{Total: total, Offset: offset, Length: length}))
	c.Status(http.StatusOK)
}

// Create endpoint POST /api/:resource
func (h *RecordHandler[C]) Create(c *gin.Context) {
	record, ok := h.readBody(c)
	if !ok {
		return
	}
	created, err := h.service.Create(c.Request.Context(), c.Param("resource"), record)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusCreated, "", []query.Record{created})
}

// Update endpoint PATCH /api/:resource
func (h *RecordHandler[C]) Update(c *gin.Context) {
	values, ok := h.readBody(c)
	if !ok {
		return
	}
	list, err := h.service.Update(c.Request.Context(), c.Param("resource"), h.readQuery(c).WhereOnly(), values)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, ContentRange(list.Meta), list.Records)
}

// Destroy endpoint DELETE /api/:resource
func (h *RecordHandler[C]) Destroy(c *gin.Context) {
	list, err := h.service.Destroy(c.Request.Context(), c.Param("resource"), h.readQuery(c).WhereOnly())
	if err != nil {
		h.fail(c, err)
		return
	}
	h.respond(c, http.StatusOK, ContentRange(list.Meta), list.Records)
}

// ---------------- Helpers ----------------

// readQuery combina la cabecera Range con el querystring; limit y offset
// explícitos en la URL ganan.
func (h *RecordHandler[C]) readQuery(c *gin.Context) query.Query {
	q := querystring.DecodeValues(c.Request.URL.Query(), querystring.WithNames(h.names))
	if page, ok := ParseRange(c.GetHeader("Range")); ok {
		return query.New(page, q)
	}
	return q
}

func (h *RecordHandler[C]) readBody(c *gin.Context) (query.Record, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.SendBadRequest(c, "could not read body")
		return nil, false
	}
	record, err := query.UnmarshalRecord(data)
	if err != nil || record == nil {
		utils.SendBadRequest(c, "body must be a JSON object")
		return nil, false
	}
	return querystring.ConvertKeys(record, h.names.FromWire), true
}

// respond escribe los registros con nombres del cable; ver utils.SendRecords.
func (h *RecordHandler[C]) respond(c *gin.Context, status int, contentRange string, records []query.Record) {
	utils.SendRecords(c, status, contentRange, h.toWire(records))
}

func (h *RecordHandler[C]) toWire(records []query.Record) []query.Record {
	out := make([]query.Record, len(records))
	for i, r := range records {
		out[i] = querystring.ConvertKeys(r, h.names.ToWire)
	}
	return out
}

func (h *RecordHandler[C]) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	utils.SendError(c, status, err.Error())
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrUnknownResource) || errors.Is(err, domain.ErrResourceRequired) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ---------------- Rangos ----------------

// ContentRange formatea "desde-hasta/total", o "*/total" si la página está vacía.
func ContentRange(meta domain.Meta) string {
	if meta.Length == 0 {
		return fmt.Sprintf("*/%d", meta.Total)
	}
	return fmt.Sprintf("%d-%d/%d", meta.Offset, meta.Offset+meta.Length-1, meta.Total)
}

// ParseRange interpreta "Range: desde-hasta" (o "desde-") como paginación.
func ParseRange(header string) (query.Fragment, bool) {
	header = strings.TrimPrefix(strings.TrimSpace(header), "items=")
	from, to, found := strings.Cut(header, "-")
	if !found {
		return nil, false
	}
	start, err := strconv.Atoi(from)
	if err != nil || start < 0 {
		return nil, false
	}
	if to == "" {
		return query.Offset(start), true
	}
	end, err := strconv.Atoi(to)
	if err != nil || end < start {
		return nil, false
	}
	return query.New(query.Offset(start), query.Limit(end-start+1)), true
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const maxBodySize = 1 << 20

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// badRequestErrors отображаются в 400 со своим текстом.
var badRequestErrors = []error{
	e.ErrInvalidJSON,
	e.ErrProductNameRequired,
	e.ErrProductNameTooLong,
	e.ErrInvalidPrice,
	e.ErrPricePrecision,
	e.ErrVersionRequired,
	e.ErrInvalidVersion,
	e.ErrInvalidPaging,
	e.ErrInvalidID,
}

func ToHTTPResponse(err error) (int, string) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, target.Error()
		}
	}

	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrVersionConflict):
		return http.StatusConflict, e.ErrVersionConflict.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, e.ErrUnsupportedMediaType.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// priceToCents переводит цену в копейки.
// Ошибка, если цена отрицательная, больше 1 000 000 000.00 или имеет больше 2 знаков после запятой.
func priceToCents(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, e.ErrInvalidPrice
	}

	if d.GreaterThan(centsToPrice(domain.MaxPrice)) {
		return 0, e.ErrInvalidPrice
	}

	if !d.Equal(d.Truncate(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Shift(2).IntPart(), nil
}

// centsToPrice — обратное преобразование для ответов.
func centsToPrice(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// decodeJSON читает тело запроса в dst. Тело должно быть application/json.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := ensureJSON(r); err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap("empty body", e.ErrInvalidJSON)
		}
		return e.Wrap(err.Error(), e.ErrInvalidJSON)
	}

	return nil
}

func ensureJSON(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return e.Wrap(whereami.WhereAmI(), e.ErrUnsupportedMediaType)
	}

	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || (mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json")) {
		return e.Wrap(ct, e.ErrUnsupportedMediaType)
	}

	return nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(chi.URLParam(r, "id"), e.ErrInvalidID)
	}

	return id, nil
}

// queryInt возвращает def, если параметра нет, и ErrInvalidPaging, если он не число.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, e.Wrap(key+"="+v, e.ErrInvalidPaging)
	}

	return n, nil
}

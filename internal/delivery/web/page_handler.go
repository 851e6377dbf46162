// Package web отдаёт серверные HTML-страницы.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/DRSN-tech/fontus/internal/domain"
	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
	"github.com/dustin/go-humanize"
	"github.com/gofiber/template/html/v2"
	"github.com/jimlawless/whereami"
	"golang.org/x/text/language"
)

const (
	ProductsView             = "products"
	MainMenuProductsInvoices = "main_menu_products_and_invoices"
	LeftMenuProducts         = "left_menu_products"
)

//go:embed templates/*.html
var templatesFS embed.FS

// supportedLocales — первый элемент используется, если Accept-Language не совпал ни с одним.
var supportedLocales = []language.Tag{
	language.English,
	language.Russian,
	language.German,
}

// ProductsPage — модель страницы товаров.
type ProductsPage struct {
	View                     string
	UserLocale               string
	SelectedMainMenuItemCode string
	SelectedLeftMenuItemCode string
	Records                  int64
	Products                 []ProductRow
}

type ProductRow struct {
	ID      int64
	Name    string
	Price   string
	Version int64
}

type PageHandler struct {
	productUsecase usecase.ProductUC
	engine         *html.Engine
	matcher        language.Matcher
	logger         logger.Logger
}

func NewPageHandler(productUsecase usecase.ProductUC, logger logger.Logger) (*PageHandler, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &PageHandler{
		productUsecase: productUsecase,
		engine:         engine,
		matcher:        language.NewMatcher(supportedLocales),
		logger:         logger,
	}, nil
}

// ServeHTTP рисует первую страницу товаров.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	res, err := h.productUsecase.List(r.Context(), &usecase.ListProductsReq{
		Rows: usecase.DefaultRows,
		Page: usecase.DefaultPage,
	})
	if err != nil {
		h.logger.Errorf(err, "products page")
		http.Error(w, e.ErrInternalServerError.Error(), http.StatusInternalServerError)
		return
	}

	page := ProductsPage{
		View:                     ProductsView,
		UserLocale:               h.userLocale(r),
		SelectedMainMenuItemCode: MainMenuProductsInvoices,
		SelectedLeftMenuItemCode: LeftMenuProducts,
		Records:                  res.Records,
		Products:                 toRows(res.Rows),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.engine.Render(w, ProductsView, page); err != nil {
		h.logger.Errorf(err, "render %s", ProductsView)
	}
}

// userLocale выбирает поддерживаемую локаль по заголовку Accept-Language.
func (h *PageHandler) userLocale(r *http.Request) string {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, idx, _ := h.matcher.Match(tags...)
	return supportedLocales[idx].String()
}

func toRows(products []domain.Product) []ProductRow {
	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, ProductRow{
			ID:      p.ID,
			Name:    p.Name,
			Price:   humanize.FormatFloat("#,###.##", float64(p.Price)/100),
			Version: p.Version,
		})
	}

	return rows
}

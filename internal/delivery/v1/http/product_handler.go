package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/fontus/internal/usecase"
	"github.com/DRSN-tech/fontus/pkg/e"
	"github.com/DRSN-tech/fontus/pkg/logger"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// createProduct
//
//	@Summary		Создание товара
//	@Description	Создаёт товар с версией 0. Поле version можно не передавать или передать 0.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		ProductRequest	true	"Товар"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Failure		415		{object}	ErrorResponse
//	@Router			/rest/products [post]
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.writeError(w, r, err)
		return
	}

	price, err := requestPrice(req.Price)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	var version int64
	if req.Version != nil {
		version = *req.Version
	}

	product, err := p.productUsecase.Create(r.Context(), &usecase.CreateProductReq{
		Name:    req.Name,
		Price:   price,
		Version: version,
	})
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(product))
}

// getProduct
//
//	@Summary	Товар по id
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/rest/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	product, err := p.productUsecase.Get(r.Context(), id)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(product))
}

// listProducts
//
//	@Summary		Страница товаров
//	@Description	Параметры jqGrid. Неизвестные sidx и sord заменяются на id и asc.
//	@Tags			products
//	@Produce		json
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param			rows			query		int		false	"Размер страницы (1..500)"	default(20)
//	@Param			page			query		int		false	"Номер страницы с 1"		default(1)
//	@Param			sidx			query		string	false	"Поле сортировки"			Enums(id, name, price, version)
//	@Param			sord			query		string	false	"Направление"				Enums(asc, desc)
//	@Param			export_as_excel	query		bool	false	"Выгрузить страницу в xlsx"
//	@Success		200				{object}	ListResponse
//	@Failure		400				{object}	ErrorResponse
//	@Router			/rest/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	rows, err := queryInt(r, "rows", usecase.DefaultRows)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	page, err := queryInt(r, "page", usecase.DefaultPage)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	res, err := p.productUsecase.List(r.Context(), &usecase.ListProductsReq{
		Rows:      rows,
		Page:      page,
		SortIndex: q.Get("sidx"),
		SortOrder: q.Get("sord"),
	})
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	if export, _ := strconv.ParseBool(q.Get("export_as_excel")); export {
		if err := writeExcel(w, res); err != nil {
			p.logger.Errorf(err, "excel export failed")
		}
		return
	}

	WriteSuccess(w, http.StatusOK, NewListResponse(res))
}

// updateProduct
//
//	@Summary		Изменение товара
//	@Description	Применяется, только если version совпадает с сохранённой. Версия увеличивается на 1.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"ID товара"
//	@Param			product	body		ProductRequest	true	"Новые данные и ожидаемая версия"
//	@Success		200		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Версия устарела"
//	@Router			/rest/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.writeError(w, r, err)
		return
	}

	if req.Version == nil {
		p.writeError(w, r, e.ErrVersionRequired)
		return
	}

	price, err := requestPrice(req.Price)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	product, err := p.productUsecase.Update(r.Context(), &usecase.UpdateProductReq{
		ID:      id,
		Name:    req.Name,
		Price:   price,
		Version: *req.Version,
	})
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewProductResponse(product))
}

// deleteProduct
//
//	@Summary		Удаление товара
//	@Description	Применяется, только если version совпадает с сохранённой.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int				true	"ID товара"
//	@Param			body	body		DeleteRequest	true	"Ожидаемая версия"
//	@Success		200		{object}	DeleteResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Версия устарела"
//	@Router			/rest/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	var req DeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.writeError(w, r, err)
		return
	}

	if req.Version == nil {
		p.writeError(w, r, e.ErrVersionRequired)
		return
	}

	res, err := p.productUsecase.Delete(r.Context(), &usecase.DeleteProductReq{
		ID:      id,
		Version: *req.Version,
	})
	if err != nil {
		p.writeError(w, r, err)
		return
	}

	WriteSuccess(w, http.StatusOK, NewDeleteResponse(res))
}

// writeError пишет ответ с ошибкой; 5xx логируются как ошибки, остальное — как предупреждения.
func (p *ProductHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		p.logger.Errorf(err, "%s %s", r.Method, r.URL.Path)
	} else {
		p.logger.Warnf("%d %s %s: %v", code, r.Method, r.URL.Path, err)
	}

	WriteError(w, err)
}

func requestPrice(price *Price) (int64, error) {
	if price == nil {
		return 0, e.Wrap("price is missing", e.ErrInvalidPrice)
	}

	return priceToCents(price.Decimal)
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxNameLength — максимальная длина названия в символах (после обрезки пробелов).
	MaxNameLength = 255
	// MaxPrice — верхняя граница цены в копейках (1 000 000 000.00).
	MaxPrice int64 = 100_000_000_000
)

// Product описывает продукт
type Product struct {
	ID        int64
	Name      string
	Price     int64 // Цена хранится в копейках
	Version   int64 // Растёт на 1 при каждом успешном изменении или удалении
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewProduct(name string, price int64) *Product {
	return &Product{
		Name:  NormalizeName(name),
		Price: price,
	}
}

// NormalizeName обрезает пробельные символы по краям.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// NameLength возвращает длину названия в символах.
func NameLength(name string) int {
	return utf8.RuneCountInString(name)
}

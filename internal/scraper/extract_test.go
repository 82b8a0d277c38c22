package scraper

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

const itemPageHTML = `<!DOCTYPE html>
<html>
<head>
	<title>ポケモン ピカチュウ ぬいぐるみ by メルカリ</title>
	<meta name="description" content="新品未使用のぬいぐるみです。">
</head>
<body>
	<div data-testid="name"><h1>  ピカチュウ ぬいぐるみ 大  </h1></div>
	<div data-testid="price"><span>¥</span><span>1,999</span></div>
	<img src="https://static.mercdn.net/item/detail/orig/photos/m1_1.jpg">
	<img src="https://static.mercdn.net/item/detail/orig/photos/m1_2.jpg">
	<img src="https://static.mercdn.net/item/detail/orig/photos/m1_1.jpg">
	<img src="//static.mercdn.net/thumb/photos/m1_3.jpg">
	<img src="https://example.com/banner.png">
	<img src="/relative/mercdn.net.png">
	<img alt="no source">
</body>
</html>`

func TestExtractItemPage(t *testing.T) {
	e := NewExtractor("")
	snapshot := e.Extract(itemPageHTML)

	assert.Equal(t, "ピカチュウ ぬいぐるみ 大", snapshot.Title)
	assert.Equal(t, "新品未使用のぬいぐるみです。", snapshot.Description)
	assert.Equal(t, 1999, snapshot.Price)
	assert.ElementsMatch(t, []string{
		"https://static.mercdn.net/item/detail/orig/photos/m1_1.jpg",
		"https://static.mercdn.net/item/detail/orig/photos/m1_2.jpg",
		"https://static.mercdn.net/thumb/photos/m1_3.jpg",
	}, snapshot.Images)
}

func TestExtractEmptyHTML(t *testing.T) {
	snapshot := NewExtractor("").Extract("")

	assert.Equal(t, TitleNotFound, snapshot.Title)
	assert.Equal(t, DescriptionPlaceholder, snapshot.Description)
	assert.Equal(t, 0, snapshot.Price)
	assert.Empty(t, snapshot.Images)
	assert.NotNil(t, snapshot.Images)
}

func TestExtractTitleFallback(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "branding suffix",
			html: `<html><head><title>ポケモン ぬいぐるみ by メルカリ</title></head></html>`,
			want: "ポケモン ぬいぐるみ",
		},
		{
			name: "dash separator",
			html: `<html><head><title>Vintage Camera - メルカリ</title></head></html>`,
			want: "Vintage Camera",
		},
		{
			name: "pipe separator",
			html: `<html><head><title> Plush Toy | Mercari Japan </title></head></html>`,
			want: "Plush Toy",
		},
		{
			name: "empty marker heading falls through",
			html: `<html><head><title>Camera by Mercari</title></head><body><h1 data-testid="name">  </h1></body></html>`,
			want: "Camera",
		},
		{
			name: "branding only",
			html: `<html><head><title>by メルカリ</title></head></html>`,
			want: TitleNotFound,
		},
		{
			name: "malformed markup",
			html: `<html><head><title>Broken <b>tag`,
			want: "Broken <b>tag",
		},
	}

	e := NewExtractor("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.html).Title)
		})
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		price int
		found bool
	}{
		{"price block", `<div data-testid="price"><span>¥</span><span>12,345</span></div>`, 12345, true},
		{"yen span", `<p><span>送料込み</span><span>¥3,000</span></p>`, 3000, true},
		{"full-width yen", `<span>￥ 800</span>`, 800, true},
		{"symbol without number", `<span>¥</span>`, 0, false},
		{"unparseable", `<div data-testid="price">¥ask</div>`, 0, false},
		{"no price indicator", `<p>1,000</p>`, 0, false},
	}

	e := NewExtractor("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, found := e.Price(tt.html)
			assert.Equal(t, tt.price, price)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.price, e.Extract(tt.html).Price)
		})
	}
}

func TestExtractDescriptionPlaceholder(t *testing.T) {
	e := NewExtractor("")
	assert.Equal(t, DescriptionPlaceholder, e.Extract(`<meta name="description" content="  ">`).Description)
	assert.Equal(t, DescriptionPlaceholder, e.Extract(`<meta name="keywords" content="x">`).Description)
}

func TestExtractImagesIdempotent(t *testing.T) {
	e := NewExtractor("mercdn.net")
	first := e.Extract(itemPageHTML).Images
	second := e.Extract(itemPageHTML).Images

	sort.Strings(first)
	sort.Strings(second)
	assert.Equal(t, first, second)
}

func TestExtractCustomMediaHost(t *testing.T) {
	e := NewExtractor("cdn.example.jp")
	images := e.Extract(`<img src="https://cdn.example.jp/a.jpg"><img src="https://static.mercdn.net/b.jpg">`).Images
	assert.Equal(t, []string{"https://cdn.example.jp/a.jpg"}, images)
}

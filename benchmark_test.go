package tlproxy_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/tlproxy"
	"github.com/ZaguanLabs/tlproxy/cache"
	"github.com/ZaguanLabs/tlproxy/extract"
	"github.com/ZaguanLabs/tlproxy/provider"
)

// Benchmarks for performance validation

func BenchmarkHashText(b *testing.B) {
	text := "Привіт світ, це зразок тексту для хешування"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tlproxy.HashText(text)
	}
}

func BenchmarkNormalize(b *testing.B) {
	text := "  Привіт   світ,\n\tце   зразок   тексту  "
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tlproxy.Normalize(text, 500)
	}
}

func BenchmarkSanitizer_Parse(b *testing.B) {
	s, err := tlproxy.NewSanitizer(tlproxy.DefaultConfig().Policy())
	if err != nil {
		b.Fatal(err)
	}

	texts := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		texts = append(texts, `"Рядок номер `+strconv.Itoa(i)+`"`)
	}
	body := []byte(`{"texts":[` + strings.Join(texts, ",") + `]}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Parse(body); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryCache_Get(b *testing.B) {
	c, _ := cache.NewMemoryCache(1000, time.Hour)
	c.Set("test-key", "test-value")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("test-key")
	}
}

func BenchmarkMemoryCache_Set(b *testing.B) {
	c, _ := cache.NewMemoryCache(1000, time.Hour)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set("key-"+strconv.Itoa(i%2000), "test-value")
	}
}

func BenchmarkExtractor_Extract(b *testing.B) {
	e := extract.NewExtractor()
	page := `<!DOCTYPE html>
<html>
<head><title>Тестова сторінка</title></head>
<body>
	<nav><a href="/">Головна</a><a href="/about">Про нас</a></nav>
	<main>
		<h1>Ласкаво просимо</h1>
		<p>Це абзац з текстом.</p>
		<p>Ще один абзац.</p>
		<ul>
			<li>Перший</li>
			<li>Другий</li>
			<li>Третій</li>
		</ul>
	</main>
	<footer><p>Усі права захищено</p></footer>
</body>
</html>`
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(strings.NewReader(page))
	}
}

func BenchmarkService_Handle_Cached(b *testing.B) {
	cfg := tlproxy.DefaultConfig()
	cfg.RateSweepInterval = 0
	cfg.RateMax = 1 << 30

	svc, err := tlproxy.New(cfg, provider.NewMockProvider())
	if err != nil {
		b.Fatal(err)
	}
	defer svc.Close()

	body := []byte(`{"texts":["Привіт","світ","Дякую"]}`)
	ctx := context.Background()

	// Prime the cache
	svc.Handle(ctx, "bench", body)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Handle(ctx, "bench", body)
	}
}

func BenchmarkService_Translate_Uncached(b *testing.B) {
	cfg := tlproxy.DefaultConfig()
	cfg.RateSweepInterval = 0

	texts := []string{"Привіт", "світ", "Дякую"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Fresh service each time to avoid cache
		svc, _ := tlproxy.New(cfg, provider.NewMockProvider())
		svc.Translate(context.Background(), texts)
		svc.Close()
	}
}

func BenchmarkGetLanguageName(b *testing.B) {
	langs := []string{"en_US", "es_ES", "ar_SA", "ja_JP", "zh_CN"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tlproxy.GetLanguageName(langs[i%len(langs)])
	}
}

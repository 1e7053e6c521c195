// Package tlproxy provides a caching translation proxy for short text snippets.
//
// A Service accepts batches of source-language snippets, filters them through a
// Sanitizer, answers what it can from a bounded TTL cache and translates the rest
// through an Upstream engine using a fixed-size worker pool. Identical snippets
// requested concurrently share one upstream call, and clients are limited by a
// fixed-window request counter.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/tlproxy"
//	    "github.com/ZaguanLabs/tlproxy/provider"
//	)
//
//	func main() {
//	    cfg := tlproxy.DefaultConfig()
//	    p := provider.NewGoogleProvider(provider.GoogleConfig{TargetLang: cfg.TargetLang})
//
//	    svc, err := tlproxy.New(cfg, p)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer svc.Close()
//
//	    out := svc.TranslateBatch(context.Background(), []string{"Привіт  світ"})
//	    fmt.Println(out["Привіт світ"]) // Hello world
//	}
package tlproxy

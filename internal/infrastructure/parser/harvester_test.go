package parser

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestHarvestFiltersAndResolves(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<article><a href="/blogs/first-post/">First</a><a href="/blogs/first-post/">Again</a></article>
	<h2><a href="https://site.example/blogs/second-post/">Second</a></h2>
	<h2><a href="#comments">Jump</a></h2>
	<h3><a href="/blogs/third-post/#respond">Reply</a></h3>
	<h3><a href="/about-us/">About</a></h3>
	<div class="pagination"><h3><a href="/blogs/page/2/">2</a></h3></div>
	</body></html>`

	h, err := NewHarvester("https://site.example", "blog", 5)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	links, err := h.Harvest(html)
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}

	want := []string{
		"https://site.example/blogs/first-post/",
		"https://site.example/blogs/second-post/",
	}
	if !reflect.DeepEqual(links, want) {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestHarvestCapsResults(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 8; i++ {
		fmt.Fprintf(&b, `<article><a href="/blogs/post-%d/">Post %d</a></article>`, i, i)
	}
	for i := 9; i <= 12; i++ {
		fmt.Fprintf(&b, `<h2><a href="/blogs/post-%d/">Post %d</a></h2>`, i, i)
	}
	b.WriteString("</body></html>")

	h, err := NewHarvester("https://site.example", "blog", 0)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	links, err := h.Harvest(b.String())
	if err != nil {
		t.Fatalf("Harvest: %v", err)
	}
	if len(links) != DefaultMaxLinks {
		t.Fatalf("expected %d links, got %d", DefaultMaxLinks, len(links))
	}
	if links[0] != "https://site.example/blogs/post-1/" || links[4] != "https://site.example/blogs/post-5/" {
		t.Fatalf("unexpected order: %v", links)
	}
}

func TestHarvestFallsThroughSelectors(t *testing.T) {
	t.Parallel()

	html := `<html><body>
	<div class="post-title"><a href="/blog/a">A</a></div>
	<div class="card"><a href="/blog/b">B</a></div>
	</body></html>`

	h, err := NewHarvester("https://site.example/", "blog", 5)
	if err != nil {
		t.Fatalf("NewHarvester: %v", err)
	}

	links, _ := h.Harvest(html)
	want := []string{"https://site.example/blog/a", "https://site.example/blog/b"}
	if !reflect.DeepEqual(links, want) {
		t.Fatalf("unexpected links: %v", links)
	}
}

func TestNewHarvesterRejectsRelativeOrigin(t *testing.T) {
	t.Parallel()

	if _, err := NewHarvester("/blogs", "blog", 5); err == nil {
		t.Fatal("expected error for relative origin")
	}
}

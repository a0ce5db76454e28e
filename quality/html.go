// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package quality

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// contentSelector lists the block elements whose text becomes paragraphs.
const contentSelector = "h1,h2,h3,h4,p,li,pre"

// ParagraphsFromHTML extracts the main article content of an HTML page and
// returns its title and its text as blank-line separated paragraphs, ready for
// FilterQualityContent.
func ParagraphsFromHTML(rawURL, html string) (title, text string, err error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing url: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return "", "", fmt.Errorf("extracting article: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return "", "", fmt.Errorf("parsing article content: %w", err)
	}

	var paragraphs []string
	doc.Find(contentSelector).Each(func(_ int, s *goquery.Selection) {
		// list items holding their own paragraphs are emitted through those
		if goquery.NodeName(s) == "li" && s.Find("p").Length() > 0 {
			return
		}
		if t := normalizeText(s.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})

	return normalizeText(article.Title), strings.Join(paragraphs, ParagraphSeparator), nil
}

// normalizeText collapses a block's lines into one line.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			b.WriteString(line)
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

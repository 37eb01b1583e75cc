package browser

import (
	"fmt"
	"regexp"
	"strings"

	"monaco_verification/domain/entities"
)

// similarElementsJS lists elements whose id or class contains one of the
// given keywords, so a renamed selector shows up in the timeout message.
const similarElementsJS = `keywords => {
	const out = [];
	const seen = new Set();
	for (const el of document.querySelectorAll('[id], [class]')) {
		const id = el.id || '';
		const cls = typeof el.className === 'string' ? el.className : '';
		const hay = (id + ' ' + cls).toLowerCase();
		if (!keywords.some(k => hay.includes(k))) continue;
		let selector = el.tagName.toLowerCase();
		if (id) {
			selector = '#' + id;
		} else if (cls) {
			selector += '.' + cls.split(/\s+/).filter(c => c).slice(0, 3).join('.');
		}
		if (seen.has(selector)) continue;
		seen.add(selector);
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		out.push({
			selector: selector,
			text: (el.textContent || '').trim().substring(0, 60),
			isVisible: rect.width > 0 && rect.height > 0 && style.display !== 'none' && style.visibility !== 'hidden'
		});
		if (out.length >= 5) break;
	}
	return out;
}`

var selectorWord = regexp.MustCompile(`[A-Za-z][A-Za-z0-9_-]{2,}`)

// selectorKeywords - extracts id/class words from a CSS selector
func selectorKeywords(selector string) []string {
	var keywords []string
	seen := make(map[string]bool)
	for _, word := range selectorWord.FindAllString(selector, -1) {
		word = strings.ToLower(word)
		if word == "not" || word == "body" || word == "visible" || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// parseElements - converts the evaluation result into page elements
func parseElements(result interface{}) []entities.PageElement {
	items, ok := result.([]interface{})
	if !ok {
		return nil
	}
	elements := make([]entities.PageElement, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		elements = append(elements, entities.PageElement{
			Selector:  getString(m, "selector"),
			Text:      getString(m, "text"),
			IsVisible: getBool(m, "isVisible"),
		})
	}
	return elements
}

// describeSimilar - renders a hint appended to selector timeouts
func describeSimilar(elements []entities.PageElement) string {
	if len(elements) == 0 {
		return "element may not exist on this page or page structure has changed"
	}
	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		state := "hidden"
		if el.IsVisible {
			state = "visible"
		}
		parts = append(parts, fmt.Sprintf("%s [%s]", el.Selector, state))
	}
	return "similar elements found: " + strings.Join(parts, ", ")
}

// getString - extracts string value from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getBool - extracts boolean value from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

package vaultindex

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// [[wiki-link]] with optional |alias or #heading suffix.
	wikiLinkRe = regexp.MustCompile(`\[\[([^\]|#]+)(?:[|#][^\]]+)?\]\]`)
	// YAML front-matter tags line, bracketed or bare.
	yamlTagsRe = regexp.MustCompile(`(?mi)^tags:\s*\[?([^\]\n]+)\]?`)
	// Inline #tag, excluding headings via the preceding-character class.
	inlineTagRe = regexp.MustCompile(`(?m)(^|[^\w#])#([\w/-]+)`)

	tagSplitRe = regexp.MustCompile(`[,\s]+`)
)

// IndexMarkdownFile parses a single vault note and updates all tables.
// Unreadable files are skipped without error so a bulk harvest never stalls
// on one bad note.
func (s *Store) IndexMarkdownFile(ctx context.Context, mdPath string) error {
	stem := strings.TrimSuffix(filepath.Base(mdPath), filepath.Ext(mdPath))
	data, err := os.ReadFile(mdPath)
	if err != nil {
		return nil
	}
	content := string(data)

	var links []string
	for _, match := range wikiLinkRe.FindAllStringSubmatch(content, -1) {
		link := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(match[1])), " ", "-")
		if link != "" {
			links = append(links, link)
		}
	}

	if err := s.UpsertNote(ctx, stem, ExtractTitle(content, stem), mdPath); err != nil {
		return err
	}
	if err := s.UpsertTags(ctx, stem, ExtractTags(content)); err != nil {
		return err
	}
	return s.UpsertLinks(ctx, stem, links)
}

// HarvestVault walks the vault and indexes every markdown note, skipping
// hidden directories (.obsidian, .trash). Returns the number of notes
// indexed.
func (s *Store) HarvestVault(ctx context.Context, vaultDir string) (int, error) {
	count := 0
	err := filepath.WalkDir(vaultDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if strings.HasPrefix(entry.Name(), ".") && path != vaultDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.IndexMarkdownFile(ctx, path); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// ExtractTitle returns the first H1 heading, falling back to the stem.
func ExtractTitle(content, fallback string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return fallback
}

// ExtractTags collects tags from YAML front matter and inline #tags,
// lowercased and deduplicated, sorted.
func ExtractTags(content string) []string {
	seen := map[string]struct{}{}

	for _, match := range yamlTagsRe.FindAllStringSubmatch(content, -1) {
		for _, tag := range tagSplitRe.Split(match[1], -1) {
			tag = strings.Trim(strings.TrimSpace(tag), `"'`)
			if tag != "" && tag != "-" {
				seen[strings.ToLower(tag)] = struct{}{}
			}
		}
	}
	for _, match := range inlineTagRe.FindAllStringSubmatch(content, -1) {
		seen[strings.ToLower(match[2])] = struct{}{}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

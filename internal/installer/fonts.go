package installer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"macos-bootstrap/internal/logger"
	"macos-bootstrap/internal/plan"
)

// installFont fetches a font's GitHub release archive, extracts it, and
// copies the font files into ~/Library/Fonts. Unlike the brew-backed
// categories this one mutates through Go code rather than an external
// installer, so all failures surface as failed outcomes via failResult,
// and the timeout ceiling is enforced through the context rather than
// the executor.
func (in *Installer) installFont(ctx context.Context, item plan.Item) Result {
	font := item.Font
	if font == nil {
		panic(fmt.Sprintf("installer: font item %q has no font payload", item.Identifier))
	}

	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	release, err := fetchRelease(ctx, font.Repo, font.Tag)
	if err != nil {
		return failResult(err)
	}
	assetName, assetURL, err := release.archiveAsset()
	if err != nil {
		return failResult(err)
	}

	workDir, err := os.MkdirTemp("", "font-"+font.Name+"-*")
	if err != nil {
		return failResult(fmt.Errorf("failed to create temp dir: %w", err))
	}
	defer os.RemoveAll(workDir)

	archivePath := filepath.Join(workDir, assetName)
	logger.Info("[INFO] Downloading %s\n", assetName)
	if err := downloadFile(ctx, assetURL, archivePath); err != nil {
		return failResult(err)
	}

	extracted, err := extractArchive(archivePath, workDir)
	if err != nil {
		return failResult(fmt.Errorf("failed to extract %s: %w", assetName, err))
	}

	fontFiles, err := findFontFiles(extracted)
	if err != nil {
		return failResult(err)
	}
	if len(fontFiles) == 0 {
		return failResult(fmt.Errorf("archive %s contains no font files", assetName))
	}

	fontsDir := filepath.Join(in.sys.Home, "Library", "Fonts")
	if err := os.MkdirAll(fontsDir, 0755); err != nil {
		return failResult(fmt.Errorf("failed to create %s: %w", fontsDir, err))
	}
	for _, src := range fontFiles {
		dst := filepath.Join(fontsDir, filepath.Base(src))
		if err := copyFile(src, dst); err != nil {
			return failResult(fmt.Errorf("failed to install %s: %w", filepath.Base(src), err))
		}
		logger.Debug("[DEBUG] Installed font file %s\n", dst)
	}

	return okResult(fmt.Sprintf("installed %d font files from %s %s", len(fontFiles), font.Repo, release.TagName))
}

// findFontFiles walks an extracted archive and collects .ttf/.otf files,
// skipping the windows-compatible variants some releases duplicate.
func findFontFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}
		if strings.Contains(strings.ToLower(path), "windows") {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for font files: %w", root, err)
	}
	return files, nil
}

// copyFile copies src to dst, truncating any existing file.
func copyFile(src, dst string) error {
	intake, err := os.Open(src)
	if err != nil {
		return err
	}
	defer intake.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, intake)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

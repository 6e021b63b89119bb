package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FullPathname makes filename absolute relative to the current working
// directory.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

// FileExists tells whether filename exists as a regular file or directory.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

// LExists tells whether filename exists without following symbolic links, so
// it also reports symbolic links whose target is gone.
func LExists(filename string) bool {
	_, err := os.Lstat(filename)
	return err == nil
}

// SafeMkdir creates dir and its parents if necessary. Concurrent calls for
// the same directory are safe.
func SafeMkdir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("%v, while creating directory %v", err, dir)
	}
	return nil
}

// SplitextPlus splits filename into base and extension, keeping double
// extensions like .vcf.gz together.
func SplitextPlus(filename string) (base, ext string) {
	ext = filepath.Ext(filename)
	base = filename[:len(filename)-len(ext)]
	switch ext {
	case ".gz", ".bz2", ".zip":
		if ext2 := filepath.Ext(base); ext2 != "" {
			ext = ext2 + ext
			base = filename[:len(filename)-len(ext)]
		}
	}
	return base, ext
}

func symlinkAtomic(target, linkname string) error {
	tmp := linkname + ".lnk"
	_ = os.Remove(tmp)
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, linkname)
}

// SymlinkPlus links linkname to target, together with any index files that
// accompany target (.tbi, .idx). The link appears atomically: a partially
// created link is never visible under linkname.
func SymlinkPlus(target, linkname string) error {
	if filepath.Clean(target) == filepath.Clean(linkname) {
		return nil
	}
	if err := symlinkAtomic(target, linkname); err != nil {
		return fmt.Errorf("%v, while linking %v to %v", err, linkname, target)
	}
	for _, idx := range []string{".tbi", ".idx"} {
		if FileExists(target + idx) {
			if err := symlinkAtomic(target+idx, linkname+idx); err != nil {
				return fmt.Errorf("%v, while linking index %v", err, linkname+idx)
			}
		}
	}
	return nil
}

// CopyFile copies src to dst, used as a fallback where the filesystem
// refuses symbolic links.
func CopyFile(src, dst string) (funcErr error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if err := in.Close(); funcErr == nil {
			funcErr = err
		}
	}()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); funcErr == nil {
			funcErr = err
		}
	}()
	_, err = io.Copy(out, in)
	return err
}

// SafeFilename replaces characters that are awkward in filenames.
func SafeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/ipaudit/schema"
)

// PointerInstaller makes linkPath resolve to target, replacing any previous pointer.
type PointerInstaller interface {
	Install(linkPath, target string) error
}

// NewPointerInstaller returns the installer for a strategy. Unknown strategies behave like auto.
func NewPointerInstaller(strategy schema.PointerStrategy) PointerInstaller {
	switch strategy {
	case schema.SymlinkPointer:
		return SymlinkPointer{}
	case schema.CopyPointer:
		return CopyPointer{}
	default:
		return AutoPointer{Primary: SymlinkPointer{}, Fallback: CopyPointer{}}
	}
}

// SymlinkPointer installs a relative symlink through a temporary link and a rename.
type SymlinkPointer struct{}

// Install implements PointerInstaller.
func (SymlinkPointer) Install(linkPath, target string) error {
	rel, err := filepath.Rel(filepath.Dir(linkPath), target)
	if err != nil {
		return err
	}

	tmp, err := reserveTempName(linkPath)
	if err != nil {
		return err
	}
	if err := os.Symlink(rel, tmp); err != nil {
		return fmt.Errorf("create symlink: %w", err)
	}
	// A copied pointer is a real directory, which rename cannot replace
	if info, err := os.Lstat(linkPath); err == nil && info.IsDir() {
		if err := os.RemoveAll(linkPath); err != nil {
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := os.Rename(tmp, linkPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install symlink: %w", err)
	}
	return nil
}

// CopyPointer installs a full copy of the target built aside and swapped in.
type CopyPointer struct{}

// Install implements PointerInstaller.
func (CopyPointer) Install(linkPath, target string) error {
	dir := filepath.Dir(linkPath)
	staging, err := os.MkdirTemp(dir, ".latest-*")
	if err != nil {
		return err
	}
	if _, err := copyTree(target, staging, ""); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	var backup string
	if info, err := os.Lstat(linkPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(linkPath); err != nil {
				_ = os.RemoveAll(staging)
				return err
			}
		} else {
			if backup, err = reserveTempName(linkPath); err != nil {
				_ = os.RemoveAll(staging)
				return err
			}
			if err := os.Rename(linkPath, backup); err != nil {
				_ = os.RemoveAll(staging)
				return err
			}
		}
	}

	if err := os.Rename(staging, linkPath); err != nil {
		if backup != "" {
			_ = os.Rename(backup, linkPath)
		}
		_ = os.RemoveAll(staging)
		return fmt.Errorf("install copy: %w", err)
	}
	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	return nil
}

// AutoPointer tries Primary and falls back to Fallback.
type AutoPointer struct {
	Primary  PointerInstaller
	Fallback PointerInstaller
}

// Install implements PointerInstaller.
func (a AutoPointer) Install(linkPath, target string) error {
	err := a.Primary.Install(linkPath, target)
	if err == nil {
		return nil
	}
	if ferr := a.Fallback.Install(linkPath, target); ferr != nil {
		return errors.Join(err, ferr)
	}
	return nil
}

// reserveTempName returns an unused sibling path of p.
func reserveTempName(p string) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	_ = f.Close()
	if err := os.Remove(name); err != nil {
		return "", err
	}
	return name, nil
}

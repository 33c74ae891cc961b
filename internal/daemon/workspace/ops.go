package workspace

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/grovetools/agentwatch/errors"
	"github.com/grovetools/agentwatch/pkg/models"
	"github.com/sirupsen/logrus"
)

// Open reads a file and makes it the active file.
func (w *Workspace) Open(rel string) (models.ActiveFile, error) {
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return models.ActiveFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return models.ActiveFile{}, errors.FileNotFound(clean)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.ActiveFile{}, errors.Wrap(err, errors.ErrCodeInternal, "failed to read file").WithDetail("path", clean)
	}

	file := models.ActiveFile{Path: clean, Content: string(data)}
	w.active.Set(file.Path, file.Content)
	w.logger.WithField("path", clean).Debug("Opened file")
	return file, nil
}

// Save writes content, creating parent directories, and publishes a file
// update. The active file's content follows when it is the saved path.
func (w *Workspace) Save(rel, content string) error {
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create parent directory").WithDetail("path", clean)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write file").WithDetail("path", clean)
	}

	w.active.UpdateContent(clean, content)
	w.logger.WithField("path", clean).Info("Saved file")
	w.pub.Publish(models.FileUpdateEvent(clean, content))
	return nil
}

// Rename gives an entry a new name in the same directory and returns the
// new workspace-relative path.
func (w *Workspace) Rename(rel, newName string) (string, error) {
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return "", errors.InvalidInput("new name must be a plain file name").WithDetail("new_name", newName)
	}
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", errors.FileNotFound(clean)
	}

	target := filepath.Join(filepath.Dir(abs), newName)
	targetRel := w.Rel(target)
	if _, err := os.Lstat(target); err == nil {
		return "", errors.FileExists(targetRel)
	}
	if err := os.Rename(abs, target); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to rename").WithDetail("path", clean)
	}

	w.active.Relocate(clean, targetRel)
	w.logger.WithFields(logrus.Fields{"path": clean, "new_path": targetRel}).Info("Renamed")
	return targetRel, nil
}

// CreateFile creates a new file, refusing to overwrite.
func (w *Workspace) CreateFile(rel, content string) (string, error) {
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err == nil {
		return "", errors.FileExists(clean)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create parent directory").WithDetail("path", clean)
	}

	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return "", errors.FileExists(clean)
		}
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create file").WithDetail("path", clean)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to write file").WithDetail("path", clean)
	}

	w.logger.WithField("path", clean).Info("Created file")
	return clean, nil
}

// CreateDir creates a directory and any missing parents.
func (w *Workspace) CreateDir(rel string) (string, error) {
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(abs); err == nil {
		return "", errors.FileExists(clean)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create directory").WithDetail("path", clean)
	}

	w.logger.WithField("path", clean).Info("Created directory")
	return clean, nil
}

// Delete removes a file, or a directory with everything below it. The
// active file is closed when it is removed.
func (w *Workspace) Delete(rel string) error {
	abs, clean, err := w.Resolve(rel)
	if err != nil {
		return err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return errors.FileNotFound(clean)
	}

	if info.IsDir() {
		if err := os.RemoveAll(abs); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete directory").WithDetail("path", clean)
		}
		w.active.ClearIf(func(p string) bool { return strings.HasPrefix(p, clean+"/") })
	} else {
		if err := os.Remove(abs); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete file").WithDetail("path", clean)
		}
		w.active.ClearIf(func(p string) bool { return p == clean })
	}

	w.logger.WithField("path", clean).Info("Deleted")
	return nil
}

// Move relocates src to dest. When dest is an existing directory the entry
// is moved into it; an existing file at dest is a conflict. Returns the
// final workspace-relative destination.
func (w *Workspace) Move(src, dest string) (string, error) {
	srcAbs, srcClean, err := w.Resolve(src)
	if err != nil {
		return "", err
	}
	destAbs, destClean, err := w.Resolve(dest)
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(srcAbs); err != nil {
		return "", errors.FileNotFound(srcClean)
	}

	if info, err := os.Stat(destAbs); err == nil {
		if !info.IsDir() {
			return "", errors.FileExists(destClean)
		}
		destAbs = filepath.Join(destAbs, filepath.Base(srcAbs))
		destClean = path.Join(destClean, filepath.Base(srcAbs))
		if _, err := os.Lstat(destAbs); err == nil {
			return "", errors.FileExists(destClean)
		}
	}
	if destClean == srcClean || strings.HasPrefix(destClean, srcClean+"/") {
		return "", errors.InvalidInput("cannot move a directory into itself").WithDetail("source", srcClean)
	}

	if err := os.MkdirAll(filepath.Dir(destAbs), 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to create parent directory").WithDetail("path", destClean)
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to move").WithDetail("source", srcClean)
	}

	w.active.Relocate(srcClean, destClean)
	w.logger.WithFields(logrus.Fields{"source": srcClean, "destination": destClean}).Info("Moved")
	return destClean, nil
}

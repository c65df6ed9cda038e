// Package corpus загружает эталонные снимки: <dir>/<имя>/<изображения>.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/Spok95/classroom-attendance/internal/camera"
)

var ErrNoReferences = errors.New("нет ни одного пригодного эталонного снимка")

type Identity struct {
	Name   string
	Images []string
}

// Scan перечисляет папки людей. Файлы в корне и не-изображения пропускаются.
func Scan(dir string) ([]Identity, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("каталог эталонов: %w", err)
	}
	var out []Identity
	for _, e := range ents {
		if !e.IsDir() {
			continue
		}
		id := Identity{Name: e.Name()}
		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("каталог эталонов %s: %w", e.Name(), err)
		}
		for _, f := range files {
			if f.Type().IsRegular() && camera.IsImage(f.Name()) {
				id.Images = append(id.Images, filepath.Join(dir, e.Name(), f.Name()))
			}
		}
		sort.Strings(id.Images)
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Enroller interface {
	Enroll(ctx context.Context, identity string, images [][]byte) (int, error)
}

type Summary struct {
	Identities int // люди, у которых принят хотя бы один снимок
	Images     int // всего принятых снимков
	Skipped    []string
}

// Enroll отправляет эталоны распознавателю. Человек без пригодных снимков
// только пропускается с предупреждением; если не принят никто: ErrNoReferences.
// Ошибка транспорта распознавателя возвращается сразу.
func Enroll(ctx context.Context, dir string, e Enroller, log *zap.Logger) (Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ids, err := Scan(dir)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, id := range ids {
		if len(id.Images) == 0 {
			log.Warn("нет изображений для человека", zap.String("identity", id.Name))
			sum.Skipped = append(sum.Skipped, id.Name)
			continue
		}
		images := make([][]byte, 0, len(id.Images))
		for _, p := range id.Images {
			data, err := os.ReadFile(p)
			if err != nil {
				log.Warn("не удалось прочитать снимок", zap.String("identity", id.Name), zap.String("file", p), zap.Error(err))
				continue
			}
			images = append(images, data)
		}
		accepted, err := e.Enroll(ctx, id.Name, images)
		if err != nil {
			return sum, fmt.Errorf("загрузка эталонов %s: %w", id.Name, err)
		}
		if rejected := len(id.Images) - accepted; rejected > 0 {
			log.Warn("на части снимков лицо не найдено",
				zap.String("identity", id.Name), zap.Int("rejected", rejected), zap.Int("total", len(id.Images)))
		}
		if accepted == 0 {
			sum.Skipped = append(sum.Skipped, id.Name)
			continue
		}
		sum.Identities++
		sum.Images += accepted
	}

	if sum.Identities == 0 {
		return sum, fmt.Errorf("%s: %w", dir, ErrNoReferences)
	}
	log.Info("эталоны загружены", zap.Int("identities", sum.Identities), zap.Int("images", sum.Images))
	return sum, nil
}

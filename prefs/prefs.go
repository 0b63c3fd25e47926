// Package prefs persists the user-defaults record (name/email/phone/tech
// stack) across sessions. Persistence failures are never fatal: reads fall
// back to an empty record, writes and clears degrade to a logged no-op.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Defaults 是跨会话保存的用户默认值记录。
type Defaults struct {
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TechStack string `json:"techStack,omitempty"`
}

// IsEmpty 报告记录是否没有任何字段。
func (d Defaults) IsEmpty() bool {
	return d == Defaults{}
}

// Store 将默认值记录以 JSON 形式保存到单个文件。
type Store struct {
	path string
	log  *zap.Logger
}

// NewStore 创建一个以 path 为后端文件的存储。logger 为空时不输出诊断。
func NewStore(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, log: logger}
}

// DefaultPath 返回默认的存储位置（用户配置目录之下）。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "epistle", "defaults.json"), nil
}

// Load 读取默认值记录。文件缺失、不可读或内容损坏时返回空记录，
// 并记录一条诊断日志（文件不存在除外）。
func (s *Store) Load() Defaults {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("读取默认值记录失败，回退为空记录",
				zap.String("path", s.path), zap.Error(err))
		}
		return Defaults{}
	}
	var d Defaults
	if err := json.Unmarshal(data, &d); err != nil {
		s.log.Warn("默认值记录损坏，回退为空记录",
			zap.String("path", s.path), zap.Error(err))
		return Defaults{}
	}
	return d
}

// Save 整体写入默认值记录。失败时仅记录诊断，不向调用方传播。
func (s *Store) Save(d Defaults) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		s.log.Warn("编码默认值记录失败", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.log.Warn("创建配置目录失败", zap.String("path", s.path), zap.Error(err))
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Warn("写入默认值记录失败", zap.String("path", s.path), zap.Error(err))
	}
}

// Clear 删除默认值记录。文件不存在视为成功；其余失败仅记录诊断。
func (s *Store) Clear() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("清除默认值记录失败", zap.String("path", s.path), zap.Error(err))
	}
}

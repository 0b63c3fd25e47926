package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ByLCY/epistle/letter"
	"github.com/ByLCY/epistle/prefs"
	"github.com/ByLCY/epistle/renderer"
	canvasrenderer "github.com/ByLCY/epistle/renderer/canvas"
	"github.com/ByLCY/epistle/template"
)

var (
	version = "dev"

	logger  *zap.Logger
	verbose bool
)

func main() {
	cmd := newRootCmd()
	if err := fang.Execute(context.Background(), cmd, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

type renderFlags struct {
	templateName string
	inPath       string
	vars         []string
	varsFile     string

	name      string
	email     string
	phone     string
	company   string
	signature string

	profileName string
	profileFile string
	outPath     string
	debugPath   string
	fonts       []string
}

func newRootCmd() *cobra.Command {
	var flags renderFlags
	cmd := &cobra.Command{
		Use:           "epistle",
		Short:         "Render a cover letter to PDF",
		Long:          "Epistle 将求职信模板填充为正文，排版后输出为 PDF。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("初始化日志失败: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, flags)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	cmd.Flags().StringVarP(&flags.templateName, "template", "t", "classic", "内置模板名（见 epistle templates）")
	cmd.Flags().StringVar(&flags.inPath, "in", "", "直接使用正文文件，跳过模板填充")
	cmd.Flags().StringArrayVar(&flags.vars, "var", nil, "模板变量，形如 key=value，可重复")
	cmd.Flags().StringVar(&flags.varsFile, "vars-file", "", "变量定义 YAML 文件")
	cmd.Flags().StringVar(&flags.name, "name", "", "发信人姓名")
	cmd.Flags().StringVar(&flags.email, "email", "", "发信人邮箱")
	cmd.Flags().StringVar(&flags.phone, "phone", "", "发信人电话")
	cmd.Flags().StringVar(&flags.company, "company", "", "收信公司名称")
	cmd.Flags().StringVar(&flags.signature, "signature", "", "签名图片路径（PNG/JPEG/GIF）")
	cmd.Flags().StringVarP(&flags.profileName, "profile", "p", "standard", "样式档案：standard|formal|markdown")
	cmd.Flags().StringVar(&flags.profileFile, "profile-file", "", "样式档案覆盖 YAML 文件")
	cmd.Flags().StringVarP(&flags.outPath, "out", "o", "", "PDF 输出路径（默认按样式档案命名）")
	cmd.Flags().StringVar(&flags.debugPath, "debug", "", "排版调试 JSON 输出路径")
	cmd.Flags().StringArrayVar(&flags.fonts, "font", nil, "字体覆盖，形如 role=path（role: sans/serif/mono，可加 -bold）")

	cmd.AddCommand(newTemplatesCmd())
	cmd.AddCommand(newPrefsCmd())
	return cmd
}

// runRender 串联模板填充、排版与渲染。
func runRender(cmd *cobra.Command, flags renderFlags) error {
	store := newPrefsStore()
	defaults := store.Load()

	profile, err := letter.ProfileByName(flags.profileName)
	if err != nil {
		return err
	}
	if flags.profileFile != "" {
		file, err := os.Open(flags.profileFile)
		if err != nil {
			return fmt.Errorf("无法打开样式覆盖文件 %s: %w", flags.profileFile, err)
		}
		profile, err = letter.ApplyOverride(profile, file)
		file.Close()
		if err != nil {
			return fmt.Errorf("应用样式覆盖失败: %w", err)
		}
	}

	body, err := buildBody(flags, defaults)
	if err != nil {
		return err
	}

	sender := letter.SenderInfo{
		Name:  firstOf(flags.name, defaults.Name),
		Email: firstOf(flags.email, defaults.Email),
		Phone: firstOf(flags.phone, defaults.Phone),
	}
	if flags.signature != "" {
		data, err := os.ReadFile(flags.signature)
		if err != nil {
			// 签名缺失不阻止出信，仅提示后继续
			logger.Warn("读取签名图片失败，按无签名继续",
				zap.String("path", flags.signature), zap.Error(err))
		} else {
			sender.Signature = data
		}
	}
	recipient := letter.RecipientInfo{CompanyName: flags.company}

	r, err := buildRenderer(flags.fonts)
	if err != nil {
		return err
	}
	ts, ok := r.(letter.Typesetter)
	if !ok {
		return fmt.Errorf("renderer 未实现排版接口")
	}

	doc, err := letter.Format(body, sender, recipient, profile, letter.Options{Typesetter: ts})
	if err != nil {
		return fmt.Errorf("排版失败: %w", err)
	}

	if flags.debugPath != "" {
		if err := writeDebug(doc, flags.debugPath); err != nil {
			return err
		}
	}

	outPath := flags.outPath
	if outPath == "" {
		outPath = profile.DefaultFileName
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	pdfBytes, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", outPath)
	return nil
}

// buildBody 返回待排版的正文：--in 指定文件时原样读取，否则按模板填充。
func buildBody(flags renderFlags, defaults prefs.Defaults) (string, error) {
	if flags.inPath != "" {
		data, err := os.ReadFile(flags.inPath)
		if err != nil {
			return "", fmt.Errorf("无法读取正文文件 %s: %w", flags.inPath, err)
		}
		return string(data), nil
	}

	text, ok := template.BuiltinStore().Get(flags.templateName)
	if !ok {
		return "", fmt.Errorf("找不到模板 %s", flags.templateName)
	}
	tpl, err := template.Parse(text)
	if err != nil {
		return "", fmt.Errorf("解析模板 %s 失败: %w", flags.templateName, err)
	}

	vars := template.DefaultVariables()
	if flags.varsFile != "" {
		file, err := os.Open(flags.varsFile)
		if err != nil {
			return "", fmt.Errorf("无法打开变量文件 %s: %w", flags.varsFile, err)
		}
		vars, err = template.LoadVariables(file)
		file.Close()
		if err != nil {
			return "", fmt.Errorf("解析变量文件失败: %w", err)
		}
	}

	values := map[string]string{
		"name":      firstOf(flags.name, defaults.Name),
		"email":     firstOf(flags.email, defaults.Email),
		"phone":     firstOf(flags.phone, defaults.Phone),
		"techstack": defaults.TechStack,
		"company":   flags.company,
	}
	for _, kv := range flags.vars {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return "", fmt.Errorf("非法变量 %q，应为 key=value", kv)
		}
		values[strings.TrimSpace(key)] = value
	}

	if missing := template.MissingRequired(vars, values); len(missing) > 0 {
		// 缺失的必填变量以占位符形式留在信中，便于导出草稿
		logger.Warn("存在未填写的必填变量", zap.Strings("missing", missing))
	}
	return tpl.Render(values, template.Labels(vars)), nil
}

func buildRenderer(fontFlags []string) (renderer.Renderer, error) {
	fonts := map[string]canvasrenderer.Resource{}
	for _, kv := range fontFlags {
		role, path, found := strings.Cut(kv, "=")
		if !found {
			return nil, fmt.Errorf("非法字体覆盖 %q，应为 role=path", kv)
		}
		fonts[strings.TrimSpace(role)] = canvasrenderer.Resource{Path: path}
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Fonts: fonts}), nil
}

func writeDebug(doc *letter.Document, debugPath string) error {
	if dir := filepath.Dir(debugPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	if err := letter.WriteDebugJSON(doc, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "列出内置信件模板",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := template.BuiltinStore()
			for _, name := range store.List() {
				text, _ := store.Get(name)
				tpl, err := template.Parse(text)
				if err != nil {
					return fmt.Errorf("模板 %s 损坏: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t变量: %s\n",
					name, strings.Join(tpl.Placeholders(), ", "))
			}
			return nil
		},
	}
}

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "管理跨会话的默认值记录",
	}

	var d prefs.Defaults
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "保存默认的姓名/邮箱/电话/技术栈",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newPrefsStore()
			merged := store.Load()
			if d.Name != "" {
				merged.Name = d.Name
			}
			if d.Email != "" {
				merged.Email = d.Email
			}
			if d.Phone != "" {
				merged.Phone = d.Phone
			}
			if d.TechStack != "" {
				merged.TechStack = d.TechStack
			}
			store.Save(merged)
			return nil
		},
	}
	setCmd.Flags().StringVar(&d.Name, "name", "", "默认姓名")
	setCmd.Flags().StringVar(&d.Email, "email", "", "默认邮箱")
	setCmd.Flags().StringVar(&d.Phone, "phone", "", "默认电话")
	setCmd.Flags().StringVar(&d.TechStack, "techstack", "", "默认技术栈")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "显示当前默认值记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(newPrefsStore().Load(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "清除默认值记录",
		RunE: func(cmd *cobra.Command, args []string) error {
			newPrefsStore().Clear()
			return nil
		},
	}

	cmd.AddCommand(setCmd, showCmd, clearCmd)
	return cmd
}

func newPrefsStore() *prefs.Store {
	path, err := prefs.DefaultPath()
	if err != nil {
		// 无法定位配置目录时退化到当前目录
		path = "epistle-defaults.json"
	}
	return prefs.NewStore(path, logger)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package i18n 基于 go-i18n 的通知文案目录，文案以 TOML 嵌入二进制
package i18n

import (
	"embed"
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.en.toml", "active.es.toml"}

// Catalog 文案目录
type Catalog struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
}

// NewCatalog 加载内嵌文案，defaultLocale 无法解析时回退英文
func NewCatalog(defaultLocale string) (*Catalog, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("加载文案 %s 失败: %w", file, err)
		}
	}

	return &Catalog{bundle: bundle, defaultLanguage: tag}, nil
}

// T 渲染 key 对应文案；locale 缺失时依次回退到默认语言与英文
func (c *Catalog) T(locale, key string, data map[string]any) (string, error) {
	languages := make([]string, 0, 3)
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, c.defaultLanguage.String(), language.English.String())

	localizer := i18n.NewLocalizer(c.bundle, languages...)
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		return "", fmt.Errorf("渲染文案 %s 失败: %w", key, err)
	}
	return msg, nil
}

// Render 渲染 kind_subject 与 kind_body 一组邮件文案
func (c *Catalog) Render(locale, kind string, data map[string]any) (subject, body string, err error) {
	if subject, err = c.T(locale, kind+"_subject", data); err != nil {
		return "", "", err
	}
	if body, err = c.T(locale, kind+"_body", data); err != nil {
		return "", "", err
	}
	return subject, body, nil
}

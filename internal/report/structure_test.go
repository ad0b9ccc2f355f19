package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleReport = `# Acme研究报告

## 公司概览

### 核心产品/服务
* 机器人手臂

## 行业概览

### 1. 市场概览
* 市场内容

## 财务概览

### 融资与投资
* 融资内容

## 新闻

* 新闻要点

## 参考资料

* [Example](https://example.com)
`

func TestSectionHeadings(t *testing.T) {
	assert.Equal(t,
		[]string{"公司概览", "行业概览", "财务概览", "新闻", "参考资料"},
		SectionHeadings(sampleReport),
	)
}

func TestSectionHeadings_IgnoresOtherLevels(t *testing.T) {
	doc := "# Title\n\n### Sub\n\ntext\n"
	assert.Empty(t, SectionHeadings(doc))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Acme研究报告", Title(sampleReport))
	assert.Equal(t, "", Title("no heading here"))
}

func TestHasSkeleton(t *testing.T) {
	assert.True(t, HasSkeleton(sampleReport))

	// Placeholder reports carry no sections.
	assert.False(t, HasSkeleton("# Acme研究报告\n\n暂无可用的研究简报，无法生成完整报告。"))

	// Out-of-order sections fail.
	assert.False(t, HasSkeleton("## 新闻\n\n## 公司概览\n\n## 行业概览\n\n## 财务概览\n\n## 参考资料\n"))
}

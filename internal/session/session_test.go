package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangfeng15/taizhang-sub000/internal/decoder"
	"github.com/huangfeng15/taizhang-sub000/internal/geometry"
	"github.com/huangfeng15/taizhang-sub000/internal/rules"
)

type stubProvider struct {
	docs map[string]*decoder.Document
}

func (s *stubProvider) Decode(path string) (*decoder.Document, error) {
	doc, ok := s.docs[path]
	if !ok {
		return nil, errors.New("unreadable")
	}
	return doc, nil
}

func c(text string, x0, y0, x1, y1 float64) geometry.Cell {
	return geometry.Cell{Text: text, Page: 1, X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func cells(cs ...geometry.Cell) *decoder.Document {
	return &decoder.Document{PageCount: 1, Cells: cs}
}

func announcementDoc() *decoder.Document {
	return cells(
		c("XX市设备采购公告", 10, 40, 200, 52),
		c("项目名称：", 10, 100, 60, 112),
		c("测试项目", 65, 100, 120, 112),
		c("采购方式", 10, 140, 60, 152),
		c("询价", 70, 140, 100, 152),
		c("预算金额", 10, 180, 60, 192),
		c("￥120,000.00", 70, 180, 160, 192),
	)
}

func resultDoc() *decoder.Document {
	return cells(
		c("中标人", 10, 100, 60, 112),
		c("甲公司", 70, 100, 130, 112),
		c("中标金额", 10, 140, 60, 152),
		c("￥50,000.00", 70, 140, 150, 152),
		c("评审委员会成员：张三、李四", 10, 180, 220, 192),
	)
}

func newTestSession(t *testing.T, docs map[string]*decoder.Document, opts Options) *Session {
	t.Helper()
	s, err := New(rules.Default(), &stubProvider{docs: docs}, opts)
	require.NoError(t, err)
	return s
}

func TestRunClassifiesExtractsAndMerges(t *testing.T) {
	s := newTestSession(t, map[string]*decoder.Document{
		"设备采购公告.pdf":  announcementDoc(),
		"中标结果公告.pdf":  resultDoc(),
		"notes.pdf": cells(c("随便写点什么", 10, 100, 100, 112)),
	}, Options{Workers: 2})

	res, err := s.Run(context.Background(), []string{"设备采购公告.pdf", "中标结果公告.pdf", "notes.pdf"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)

	want := map[string]string{
		"project_name":       "测试项目",
		"procurement_method": "公开询价",
		"budget_amount":      "120000.00",
		"platform_name":      "公共资源交易平台",
		"winning_supplier":   "甲公司",
		"award_amount":       "50000.00",
		"committee_members":  "张三、李四",
	}
	for label, value := range want {
		v, ok := res.Values[label]
		require.True(t, ok, "field %s should be set", label)
		assert.Equal(t, value, v.Value, "field %s", label)
	}
	assert.Equal(t, "procurement_announcement", res.Values["project_name"].DocumentType)
	assert.Equal(t, "result_announcement", res.Values["winning_supplier"].DocumentType)

	require.Len(t, res.Detections, 2)
	assert.Equal(t, "procurement_announcement", res.Detections[0].Type)
	assert.Equal(t, "result_announcement", res.Detections[1].Type)

	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "notes.pdf", res.Unassigned[0].Path)

	var missingCode bool
	for _, conf := range res.Confirmations {
		if conf.Field == "project_code" {
			missingCode = true
			assert.Contains(t, conf.Reason, "procurement_announcement")
		}
	}
	assert.True(t, missingCode, "unset required field must be surfaced for review")
}

func TestRunHigherConfidenceDocumentWinsWithinType(t *testing.T) {
	weak := cells(
		c("项目名称：", 10, 100, 60, 112),
		c("甲项目", 65, 100, 120, 112),
		c("采购方式", 10, 140, 60, 152),
	)
	strong := cells(
		c("设备采购公告", 10, 40, 100, 52),
		c("项目名称：", 10, 100, 60, 112),
		c("乙项目", 65, 100, 120, 112),
		c("预算金额", 10, 140, 60, 152),
		c("￥1.00", 70, 140, 120, 152),
		c("采购方式", 10, 180, 60, 192),
		c("公开招标", 70, 180, 130, 192),
	)

	s := newTestSession(t, map[string]*decoder.Document{
		"采购公告A.pdf": weak,
		"采购公告B.pdf": strong,
	}, Options{})

	res, err := s.Run(context.Background(), []string{"采购公告A.pdf", "采购公告B.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "乙项目", res.Values["project_name"].Value,
		"the higher-confidence document of a type is merged first")
	assert.Equal(t, "公开招标", res.Values["procurement_method"].Value)
}

func TestRunAssignedSkipsClassification(t *testing.T) {
	// Filenames carry no classification signal; the explicit assignment
	// decides.
	s := newTestSession(t, map[string]*decoder.Document{
		"a.pdf": announcementDoc(),
		"b.pdf": resultDoc(),
	}, Options{})

	res, err := s.RunAssigned(context.Background(), map[string]string{
		"procurement_announcement": "a.pdf",
		"result_announcement":      "b.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "测试项目", res.Values["project_name"].Value)
	assert.Equal(t, "甲公司", res.Values["winning_supplier"].Value)

	require.Len(t, res.Detections, 2)
	for _, det := range res.Detections {
		assert.Equal(t, "assigned", string(det.Method))
		assert.Equal(t, 1.0, det.Confidence)
	}
	assert.Empty(t, res.Unassigned)
}

func TestRunAssignedRejectsUnknownType(t *testing.T) {
	s := newTestSession(t, map[string]*decoder.Document{}, Options{})

	_, err := s.RunAssigned(context.Background(), map[string]string{"invoice": "a.pdf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice")
}

func TestRunAssignedUnreadableDocumentIsFatal(t *testing.T) {
	s := newTestSession(t, map[string]*decoder.Document{}, Options{})

	_, err := s.RunAssigned(context.Background(), map[string]string{
		"procurement_announcement": "missing.pdf",
	})
	require.Error(t, err)
}

func TestRunHonorsCancellation(t *testing.T) {
	s := newTestSession(t, map[string]*decoder.Document{
		"设备采购公告.pdf": announcementDoc(),
	}, Options{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, []string{"设备采购公告.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidRules(t *testing.T) {
	doc := rules.Default()
	doc.Fields[0].Source.DocumentType = "no_such_type"

	_, err := New(doc, &stubProvider{}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, rules.ErrInvalidRuleDocument)
}

func TestSessionIDsAreUnique(t *testing.T) {
	docs := map[string]*decoder.Document{}
	a := newTestSession(t, docs, Options{})
	b := newTestSession(t, docs, Options{})
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestMergeNeverOverwritesAcrossDocuments(t *testing.T) {
	// Both documents carry a 项目名称 anchor; only the announcement is a
	// configured source for project_name, so the result document's value
	// must not appear even though it extracts cleanly in isolation.
	resultWithName := resultDoc()
	resultWithName.Cells = append(resultWithName.Cells,
		c("项目名称：", 10, 220, 60, 232),
		c("冒名项目", 65, 220, 120, 232),
	)

	s := newTestSession(t, map[string]*decoder.Document{
		"a.pdf": announcementDoc(),
		"b.pdf": resultWithName,
	}, Options{})

	res, err := s.RunAssigned(context.Background(), map[string]string{
		"procurement_announcement": "a.pdf",
		"result_announcement":      "b.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, "测试项目", res.Values["project_name"].Value)
}

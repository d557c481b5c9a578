package rules

// Default returns the built-in rule document for the supported government
// procurement document family: the procurement announcement (采购公告), the
// result announcement (结果公告) and the signed contract (合同). Deployments
// normally load a versioned YAML document instead; the built-in set keeps
// the tool usable out of the box and anchors the test suite.
func Default() *Document {
	maxDist := 200.0

	return &Document{
		Version: "2024.2",
		DocumentTypes: []DocumentType{
			{
				Name:                "procurement_announcement",
				FilenamePatterns:    []string{"采购公告", "招标公告", "竞价公告", "采购文件"},
				ContentMarkers:      []string{"采购公告", "招标公告", "项目名称", "预算金额", "采购方式", "开标时间", "采购人"},
				ConfidenceThreshold: 0.5,
			},
			{
				Name:                "result_announcement",
				FilenamePatterns:    []string{"结果公告", "中标公告", "成交公告", "中标结果"},
				ContentMarkers:      []string{"中标公告", "成交公告", "中标人", "中标金额", "成交金额", "评审委员会"},
				ConfidenceThreshold: 0.5,
			},
			{
				Name:                "contract",
				FilenamePatterns:    []string{"合同", "协议书"},
				ContentMarkers:      []string{"合同编号", "甲方", "乙方", "签订日期", "合同金额"},
				ConfidenceThreshold: 0.5,
			},
		},
		Fields: []FieldRule{
			{
				Label:    "project_name",
				Required: true,
				DataType: DataString,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method:      MethodHorizontalKeyValue,
						Key:         "项目名称",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostCleanSpace},
				Validation:  Validation{NonEmpty: true, MaxLength: 200},
			},
			{
				Label:    "project_code",
				Required: true,
				DataType: DataString,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method:      MethodHorizontalKeyValue,
						Key:         "项目编号",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostTrim},
				Validation:  Validation{NonEmpty: true, MaxLength: 64},
			},
			{
				Label:    "budget_amount",
				DataType: DataDecimal,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method:      MethodAmount,
						Key:         "预算金额",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostParseAmount},
				Validation:  Validation{Positive: true},
			},
			{
				Label:    "procurement_method",
				Required: true,
				DataType: DataEnum,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method:      MethodHorizontalKeyValue,
						Key:         "采购方式",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostCleanSpace, PostMapEnum},
				Choices:     []string{"公开招标", "公开询价", "竞争性磋商", "竞争性谈判", "单一来源"},
			},
			{
				Label:    "open_date",
				DataType: DataDate,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method:      MethodDate,
						Key:         "开标时间",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostParseDate},
			},
			{
				Label:    "platform_name",
				DataType: DataString,
				Source: Source{
					DocumentType: "procurement_announcement",
					Extraction: Extraction{
						Method: MethodFixedValue,
						Value:  "公共资源交易平台",
						Cases: []FixedCase{
							{Match: "content", Contains: "政采云", Value: "政采云平台"},
							{Match: "filename", Contains: "云采", Value: "云采交易平台"},
						},
					},
				},
			},
			{
				Label:    "winning_supplier",
				Required: true,
				DataType: DataString,
				Source: Source{
					DocumentType: "result_announcement",
					Extraction: Extraction{
						Method:      MethodHorizontalKeyValue,
						Key:         "中标人",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostCleanSpace},
				Validation:  Validation{NonEmpty: true, MaxLength: 128},
			},
			{
				Label:    "award_amount",
				Required: true,
				DataType: DataDecimal,
				Source: Source{
					DocumentType: "result_announcement",
					Extraction: Extraction{
						Method:      MethodAmount,
						Key:         "中标金额",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostParseAmount},
				Validation:  Validation{Positive: true},
			},
			{
				Label:    "committee_members",
				DataType: DataFreeText,
				Source: Source{
					DocumentType: "result_announcement",
					Extraction: Extraction{
						Method:  MethodRegex,
						Pattern: `评审委员会成员[:：]\s*([^\n]+)`,
					},
				},
				PostProcess: []PostProcess{PostCleanSpace},
			},
			{
				Label:    "first_candidate",
				DataType: DataString,
				Source: Source{
					DocumentType: "result_announcement",
					Extraction: Extraction{
						Method:      MethodTableFirstRow,
						TableMarker: "中标候选人",
						Column:      1,
					},
				},
				PostProcess: []PostProcess{PostCleanSpace},
			},
			{
				Label:    "contract_code",
				DataType: DataString,
				Source: Source{
					DocumentType: "contract",
					Extraction: Extraction{
						Method:      MethodHorizontalKeyValue,
						Key:         "合同编号",
						MaxDistance: maxDist,
					},
				},
				PostProcess: []PostProcess{PostTrim},
				Validation:  Validation{MaxLength: 64},
			},
			{
				Label:    "sign_date",
				DataType: DataDate,
				Source: Source{
					DocumentType: "contract",
					Extraction: Extraction{
						Method:      MethodVerticalKeyValue,
						Key:         "签订日期",
						MaxDistance: 100,
					},
				},
				PostProcess: []PostProcess{PostParseDate},
			},
		},
		Aliases: map[string]map[string]string{
			"procurement_method": {
				"询价":     "公开询价",
				"招标":     "公开招标",
				"磋商":     "竞争性磋商",
				"谈判":     "竞争性谈判",
				"单一来源采购": "单一来源",
			},
		},
	}
}

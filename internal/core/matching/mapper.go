package matching

// ToJobPosting はストアレコードを JobPosting に変換する
// 欠損した任意フィールドは未設定（nil）のまま残し、代替値は作らない
// レコード自体が nil の場合のみ nil を返す
func ToJobPosting(rec Record) *JobPosting {
	if rec == nil {
		return nil
	}

	posting := &JobPosting{}

	if id, ok := rec.String(FieldID); ok {
		posting.ID = id
	}
	if title, ok := rec.String(FieldTitle); ok {
		posting.Title = title
	}
	if desc, ok := rec.String(FieldDescription); ok {
		posting.Description = desc
	}
	if exp, ok := rec.Int(FieldExperience); ok {
		posting.Experience = &exp
	}
	if techs, ok := rec.StringList(FieldRequiredTechs); ok {
		posting.RequiredTechs = techs
	}
	if company, ok := rec.String(FieldCompany); ok {
		posting.Company = &company
	}
	if location, ok := rec.String(FieldLocation); ok {
		posting.Location = &location
	}
	if et, ok := rec.String(FieldEmploymentType); ok {
		posting.EmploymentType = &et
	}
	if min, ok := rec.Float(FieldSalaryMin); ok {
		posting.SalaryMin = &min
	}
	if max, ok := rec.Float(FieldSalaryMax); ok {
		posting.SalaryMax = &max
	}
	if currency, ok := rec.String(FieldCurrency); ok {
		posting.Currency = &currency
	}

	return posting
}

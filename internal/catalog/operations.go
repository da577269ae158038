// Package catalog lists the predefined line-clearance operations an operator
// can record.
package catalog

import "fmt"

// Operation is a clearance item together with the procedure expected for it.
type Operation struct {
	Item        string `json:"item"`
	Description string `json:"description"`
}

// Label is the "item: description" text used as the operation identifier.
func (o Operation) Label() string {
	return fmt.Sprintf("%s: %s", o.Item, o.Description)
}

var operations = []Operation{
	{Item: "中间产品", Description: "清点、送规定地点放置，挂状态标识牌，与车间物料员做好交接并在记录上签字"},
	{Item: "样品瓶", Description: "清点数量后交车间物料员退回中转站保存"},
	{Item: "废弃物", Description: "清离现场、置垃圾暂存处销毁"},
	{Item: "文件记录", Description: "与后续产品无关的清离现场"},
	{Item: "工具器具", Description: "灭菌柜专用小车冲洗、湿抹、消毒或,清扫干净，置规定地点"},
	{Item: "废物贮器", Description: "冲洗、清扫干净，无积液，,并置规定地点，挂状态标识牌"},
	{Item: "生产设备", Description: "水浴式灭菌柜清洗消毒，无可见药物残留，,无油污，设备见本色，悬挂状态标识牌"},
	{Item: "工作场地", Description: "生产场所清扫、湿抹或湿拖干净，,悬挂状态标识符合状态要求"},
	{Item: "地漏", Description: "清洁、液封"},
	{Item: "清洁工具", Description: "清洗干净，置规定处存放，挂状态标识牌"},
}

var labels = func() map[string]struct{} {
	m := make(map[string]struct{}, len(operations))
	for _, op := range operations {
		m[op.Label()] = struct{}{}
	}
	return m
}()

// Operations returns the catalog in display order.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

// Labels returns the formatted option labels in display order.
func Labels() []string {
	out := make([]string, len(operations))
	for i, op := range operations {
		out[i] = op.Label()
	}
	return out
}

// Contains reports whether label is one of the catalog options.
func Contains(label string) bool {
	_, ok := labels[label]
	return ok
}

package fieldtypes

import "time"

var sampleTitles = map[string]map[string]string{
	"Products":  {"Name": "Wireless Bluetooth Headphones", "Title": "Wireless Bluetooth Headphones", "Product": "Wireless Bluetooth Headphones"},
	"Orders":    {"Order_ID": "ORD-2025-001", "Title": "Order #ORD-2025-001", "Name": "Order #ORD-2025-001"},
	"Customers": {"Name": "John Smith", "Title": "John Smith", "Customer": "John Smith"},
}

var sampleTexts = map[string]map[string]string{
	"Products":  {"Description": "High-quality wireless headphones with noise cancellation", "Category": "Electronics", "Brand": "TechBrand"},
	"Orders":    {"Status": "Processing", "Payment_Method": "Credit Card", "Notes": "Customer requested express shipping"},
	"Customers": {"Email": "john.smith@email.com", "Phone": "+1-555-0123", "Address": "123 Main St, City, State 12345"},
}

var sampleNumbers = map[string]map[string]float64{
	"Products":  {"Price": 199.99, "Stock": 50, "Weight": 0.5},
	"Orders":    {"Total": 199.99, "Quantity": 1, "Tax": 15.99},
	"Customers": {"Age": 35, "Orders_Count": 5, "Credit_Score": 750},
}

var sampleSelects = map[string]map[string]string{
	"Products":  {"Category": "Electronics", "Status": "Active", "Condition": "New"},
	"Orders":    {"Status": "Processing", "Priority": "Normal", "Payment_Status": "Paid"},
	"Customers": {"Type": "Premium", "Status": "Active", "Tier": "Gold"},
}

var sampleCheckboxes = map[string]map[string]bool{
	"Products":  {"In_Stock": true, "Featured": false, "Available": true},
	"Orders":    {"Shipped": false, "Paid": true, "Completed": false},
	"Customers": {"Verified": true, "Newsletter": true, "VIP": false},
}

// SampleValue returns a record value for one property of a sample page.
// ok is false for kinds that get no sample.
func SampleValue(source, property string, kind Kind, now time.Time) (value map[string]interface{}, ok bool) {
	switch kind {
	case KindTitle:
		text, found := sampleTitles[source][property]
		if !found {
			text = source + " Sample"
		}
		return TextValue(KindTitle, text), true
	case KindRichText:
		text, found := sampleTexts[source][property]
		if !found {
			text = "Sample text"
		}
		return TextValue(KindRichText, text), true
	case KindNumber:
		return map[string]interface{}{"number": sampleNumbers[source][property]}, true
	case KindSelect:
		name, found := sampleSelects[source][property]
		if !found {
			name = "Default"
		}
		return map[string]interface{}{"select": map[string]interface{}{"name": name}}, true
	case KindCheckbox:
		return map[string]interface{}{"checkbox": sampleCheckboxes[source][property]}, true
	case KindDate:
		return map[string]interface{}{"date": map[string]interface{}{"start": now.UTC().Format("2006-01-02")}}, true
	}
	return nil, false
}

// TextValue builds a title or rich_text record value
func TextValue(kind Kind, content string) map[string]interface{} {
	return map[string]interface{}{
		string(kind): []interface{}{
			map[string]interface{}{"text": map[string]interface{}{"content": content}},
		},
	}
}

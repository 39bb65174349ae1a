package tools

import (
	"errors"
	"testing"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{SearchRecords, `{"baseId":"app","tableId":"customers","searchTerm":"Dana"}`, SearchRecords},
		{SearchTransactions, `{"baseId":"app","customerId":"recC","projectId":"recP"}`, SearchTransactions},
		{GetAllRecords, `{"baseId":"app","tableId":"projects","maxRecords":5}`, GetAllRecords},
		{CreateRecord, `{"baseId":"app","tableId":"customers","fields":{"name":"Dana"}}`, CreateRecord},
		{UpdateRecord, `{"baseId":"app","tableId":"customers","recordId":"rec1","fields":{}}`, UpdateRecord},
		{GetTableFields, `{"baseId":"app","tableId":"customers"}`, GetTableFields},
		{FindOffice, `{"baseId":"app","projectId":"recP","floorNumber":3,"officeNumber":"301"}`, FindOffice},
	}

	for _, tt := range tests {
		in, err := Decode(tt.name, tt.args)
		if err != nil {
			t.Errorf("Decode(%s) error: %v", tt.name, err)
			continue
		}
		if in.Tool() != tt.want {
			t.Errorf("Decode(%s) produced %s", tt.name, in.Tool())
		}
	}
}

func TestDecodeTypedFields(t *testing.T) {
	in, err := Decode(FindOffice, `{"projectId":"recP","floorNumber":3,"officeNumber":" 301 "}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	office, ok := in.(FindOfficeInput)
	if !ok {
		t.Fatalf("expected FindOfficeInput, got %T", in)
	}
	if office.FloorNumber != "3" || office.OfficeNumber != "301" {
		t.Errorf("unexpected numbers: %+v", office)
	}

	in, err = Decode(UpdateRecord, `{"tableId":"customers","recordId":"rec1","fields":{"status":"Done"}}`)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	update := in.(UpdateInput)
	if update.Fields["status"] != "Done" {
		t.Errorf("unexpected fields %v", update.Fields)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantErr error
	}{
		{"drop_table", `{}`, ErrUnknownTool},
		{SearchRecords, `{"tableId":"customers"}`, ErrInvalidInput},
		{UpdateRecord, `{"tableId":"customers","recordId":"rec1"}`, ErrInvalidInput},
		{CreateRecord, `not json`, ErrInvalidInput},
		{GetAllRecords, ``, ErrInvalidInput},
		{FindOffice, `{"projectId":"recP","floorNumber":true,"officeNumber":1}`, ErrInvalidInput},
	}

	for _, tt := range tests {
		_, err := Decode(tt.name, tt.args)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Decode(%s, %q) = %v, want %v", tt.name, tt.args, err, tt.wantErr)
		}
	}
}

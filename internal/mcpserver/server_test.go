package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/caeworks/dgtscan/internal/report"
	"github.com/caeworks/dgtscan/internal/rules"
)

const sampleReport = `Matrícula: 9952 HPL Bastidor: VF1MA000012345678
Renting: No
TITULAR
Filiación: TRANSPORTE INMEDIATO SL Cotitulares: 0
HISTORIAL DE INSPECCIONES TÉCNICAS
Fecha ITV Fecha caducidad Estación Resultado Kilómetros
01/03/2024 01/03/2025 ITV-3101 FAVORABLE 110.000
01/03/2023 01/03/2024 ITV-3101 FAVORABLE 100.000
El presente documento se expide a efectos informativos
`

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test", Policy: rules.DefaultPolicy()})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

// callTool invokes an MCP tool through the server's JSON-RPC entry point.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	respBytes, err := json.Marshal(srv.HandleMessage(context.Background(), raw))
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}
	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}

	result := &mcplib.CallToolResult{IsError: resp.Result.IsError}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			result.Content = append(result.Content, mcplib.NewTextContent(c.Text))
		}
	}
	return result
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

func TestParseTool(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test", Policy: rules.DefaultPolicy()})

	result := callTool(t, srv, "dgtscan_parse", map[string]interface{}{
		"text": sampleReport,
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var data report.VehicleData
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &data); err != nil {
		t.Fatalf("parsing tool output: %v", err)
	}
	if data.Plate != "9952 HPL" {
		t.Errorf("plate = %q", data.Plate)
	}
	if len(data.Inspections) != 2 {
		t.Errorf("inspections = %d, want 2", len(data.Inspections))
	}
}

func TestParseToolMissingText(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test"})

	result := callTool(t, srv, "dgtscan_parse", map[string]interface{}{})
	if !result.IsError {
		t.Error("expected error for missing text argument")
	}
}

func TestParseToolEmptyText(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test"})

	result := callTool(t, srv, "dgtscan_parse", map[string]interface{}{
		"text": "   ",
	})
	if !result.IsError {
		t.Error("expected error for empty document")
	}
}

func TestProcessTool(t *testing.T) {
	srv := NewServer(ServerConfig{Version: "test", Policy: rules.DefaultPolicy()})

	result := callTool(t, srv, "dgtscan_process", map[string]interface{}{
		"text": sampleReport,
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var res report.ProcessedResult
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &res); err != nil {
		t.Fatalf("parsing tool output: %v", err)
	}
	if res.Plate != "9952 HPL" {
		t.Errorf("plate = %q", res.Plate)
	}
	if res.AnnualKm != 9972 {
		t.Errorf("annual projection = %d, want 9972", res.AnnualKm)
	}
}

func TestProcessToolClientOverride(t *testing.T) {
	srv := NewServer(ServerConfig{
		Version:       "test",
		DefaultClient: "TRANSPORTE INMEDIATO",
		Policy:        rules.DefaultPolicy(),
	})

	// The per-call client beats the configured default and does not match
	// this vehicle, so the pipeline stops at eligibility.
	result := callTool(t, srv, "dgtscan_process", map[string]interface{}{
		"text":   sampleReport,
		"client": "OTRA EMPRESA SA",
	})
	if result.IsError {
		t.Fatalf("tool error: %s", getTextContent(t, result))
	}

	var res report.ProcessedResult
	if err := json.Unmarshal([]byte(getTextContent(t, result)), &res); err != nil {
		t.Fatalf("parsing tool output: %v", err)
	}
	if len(res.Commentary) != 1 || !strings.Contains(res.Commentary[0], "not eligible") {
		t.Errorf("commentary = %v", res.Commentary)
	}
}

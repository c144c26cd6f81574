// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"log"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"strata/internal/config"
	"strata/internal/lsp"
)

const lsName = "strata"

var handler protocol.Handler

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Println("Error loading configuration:", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr or the configured file.
	var logFile *string
	if cfg.LogFile != "" {
		logFile = &cfg.LogFile
	}
	commonlog.Configure(cfg.Verbosity, logFile)

	strataHandler := lsp.NewHandler(cfg)

	handler = protocol.Handler{
		Initialize:                     strataHandler.Initialize,
		Initialized:                    strataHandler.Initialized,
		Shutdown:                       strataHandler.Shutdown,
		SetTrace:                       strataHandler.SetTrace,
		TextDocumentDidOpen:            strataHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           strataHandler.TextDocumentDidClose,
		TextDocumentDidChange:          strataHandler.TextDocumentDidChange,
		TextDocumentHover:              strataHandler.TextDocumentHover,
		TextDocumentFormatting:         strataHandler.TextDocumentFormatting,
		TextDocumentSemanticTokensFull: strataHandler.TextDocumentSemanticTokensFull,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting strata LSP server...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting strata LSP server:", err)
		os.Exit(1)
	}
}

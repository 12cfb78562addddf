package wasmhost

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/crabhttp/ffi"
)

func (h *Host) functions() []hostFunc {
	b := h.b
	r := &registry{h: h}

	// Client builder.
	r.ctor("new_client_builder", b.NewClientBuilder)
	r.destroy("client_builder_destroy", b.ClientBuilderDestroy)
	r.handleHandle("client_builder_default_headers", b.ClientBuilderDefaultHeaders)
	r.handleText("client_builder_user_agent", b.ClientBuilderUserAgent)
	r.handleU64("client_builder_redirect", b.ClientBuilderRedirect)
	r.handleBool("client_builder_referer", b.ClientBuilderReferer)
	r.handleHandle("client_builder_proxy", b.ClientBuilderProxy)
	r.handle("client_builder_no_proxy", b.ClientBuilderNoProxy)
	r.handleOptU64("client_builder_timeout", b.ClientBuilderTimeout)
	r.handleOptU64("client_builder_connect_timeout", b.ClientBuilderConnectTimeout)
	r.handleOptU64("client_builder_pool_idle_timeout", b.ClientBuilderPoolIdleTimeout)
	r.handleU64("client_builder_pool_max_idle_per_host", b.ClientBuilderPoolMaxIdlePerHost)
	r.handle("client_builder_http1_title_case_headers", b.ClientBuilderHTTP1TitleCaseHeaders)
	r.handle("client_builder_http1_only", b.ClientBuilderHTTP1Only)
	r.handle("client_builder_http09_responses", b.ClientBuilderHTTP09Responses)
	r.handle("client_builder_http2_prior_knowledge", b.ClientBuilderHTTP2PriorKnowledge)
	r.handleOptU32("client_builder_http2_initial_stream_window_size", b.ClientBuilderHTTP2InitialStreamWindowSize)
	r.handleOptU32("client_builder_http2_initial_connection_window_size", b.ClientBuilderHTTP2InitialConnectionWindowSize)
	r.handleOptU32("client_builder_http2_max_frame_size", b.ClientBuilderHTTP2MaxFrameSize)
	r.handleBool("client_builder_tcp_nodelay", b.ClientBuilderTCPNodelay)
	r.handleText("client_builder_local_address", b.ClientBuilderLocalAddress)
	r.handleOptU64("client_builder_tcp_keepalive", b.ClientBuilderTCPKeepalive)
	r.handleText("client_builder_add_root_certificate", b.ClientBuilderAddRootCertificate)
	r.handleBool("client_builder_tls_built_in_root_certs", b.ClientBuilderTLSBuiltInRootCerts)
	r.handleBool("client_builder_danger_accept_invalid_certs", b.ClientBuilderDangerAcceptInvalidCerts)
	r.handleText("client_builder_min_tls_version", b.ClientBuilderMinTLSVersion)
	r.handleText("client_builder_max_tls_version", b.ClientBuilderMaxTLSVersion)
	r.handleBool("client_builder_https_only", b.ClientBuilderHTTPSOnly)
	r.handleText2("client_builder_resolve", b.ClientBuilderResolve)
	r.def("client_builder_resolve_to_addrs", types(i64, i32, i32, i32, i32), types(i64),
		func(_ context.Context, mod api.Module, stack []uint64) {
			const op = "client_builder_resolve_to_addrs"
			if stack[0] == 0 {
				stack[0] = uint64(b.ClientBuilderResolveToAddrs(0, nil, nil))
				return
			}
			domain, ok := h.text(op, mod, stack[1], stack[2])
			if !ok {
				stack[0] = 0
				return
			}
			addrs, ok := h.texts(op, mod, stack[3], stack[4])
			if !ok {
				stack[0] = 0
				return
			}
			stack[0] = uint64(b.ClientBuilderResolveToAddrs(ffi.Handle(stack[0]), domain, addrs))
		})
	r.def("client_builder_rate_limit", types(i64, f64, i32), types(i64),
		func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(b.ClientBuilderRateLimit(ffi.Handle(stack[0]), api.DecodeF64(stack[1]), uint32(stack[2])))
		})
	r.handle("client_builder_build", b.ClientBuilderBuild)

	// Client.
	r.destroy("client_destroy", b.ClientDestroy)
	r.handleText("client_get", b.ClientGet)
	r.handleText("client_post", b.ClientPost)
	r.handleText("client_put", b.ClientPut)
	r.handleText("client_patch", b.ClientPatch)
	r.handleText("client_delete", b.ClientDelete)
	r.handleText("client_head", b.ClientHead)
	r.handleText2("client_request", b.ClientRequest)
	r.handleHandle("client_execute", b.ClientExecute)

	// Request builder.
	r.destroy("request_builder_destroy", b.RequestBuilderDestroy)
	r.handleText2("request_builder_header", b.RequestBuilderHeader)
	r.handleHandle("request_builder_headers", b.RequestBuilderHeaders)
	r.handleText2("request_builder_basic_auth", b.RequestBuilderBasicAuth)
	r.handleText("request_builder_bearer_auth", b.RequestBuilderBearerAuth)
	r.def("request_builder_body_bytes", types(i64, i32, i32), types(i64),
		func(_ context.Context, mod api.Module, stack []uint64) {
			if stack[0] == 0 {
				stack[0] = uint64(b.RequestBuilderBodyBytes(0, nil))
				return
			}
			data, ok := h.read("request_builder_body_bytes", mod, uint64(uint32(stack[1])), uint64(uint32(stack[2])))
			if !ok {
				stack[0] = 0
				return
			}
			stack[0] = uint64(b.RequestBuilderBodyBytes(ffi.Handle(stack[0]), data))
		})
	r.handleText("request_builder_body_string", b.RequestBuilderBodyString)
	r.handleText("request_builder_body_file", b.RequestBuilderBodyFile)
	r.handleText2("request_builder_body_file_with_name", b.RequestBuilderBodyFileWithName)
	r.handleU64("request_builder_timeout", b.RequestBuilderTimeout)
	r.handlePairs("request_builder_query", b.RequestBuilderQuery)
	r.handleText("request_builder_version", b.RequestBuilderVersion)
	r.handlePairs("request_builder_form", b.RequestBuilderForm)
	r.handlePairs("request_builder_json", b.RequestBuilderJSON)
	r.handle("request_builder_build", b.RequestBuilderBuild)
	r.handle("request_builder_send", b.RequestBuilderSend)
	r.handle("request_builder_try_clone", b.RequestBuilderTryClone)

	// Request.
	r.destroy("request_destroy", b.RequestDestroy)
	r.handle("request_method", b.RequestMethod)
	r.handle("request_url", b.RequestURL)
	r.handle("request_try_clone", b.RequestTryClone)

	// Response.
	r.destroy("response_destroy", b.ResponseDestroy)
	r.int32Of("response_status", b.ResponseStatus)
	r.handle("response_headers", b.ResponseHeaders)
	r.handle("response_version", b.ResponseVersion)
	r.handle("response_url", b.ResponseURL)
	r.handle("response_remote_addr", b.ResponseRemoteAddr)
	r.int64Of("response_content_length", b.ResponseContentLength)
	r.boolOf("response_error_for_status", b.ResponseErrorForStatus)
	r.handle("response_text", b.ResponseText)
	r.handleText("response_text_with_charset", b.ResponseTextWithCharset)
	r.handle("response_bytes", b.ResponseBytes)
	r.handle("response_copy_to", b.ResponseCopyTo)
	r.def("response_read", types(i64, i32, i32), types(i64),
		func(_ context.Context, mod api.Module, stack []uint64) {
			if stack[0] == 0 {
				stack[0] = api.EncodeI64(b.ResponseRead(0, nil))
				return
			}
			dst, ok := h.read("response_read", mod, uint64(uint32(stack[1])), uint64(uint32(stack[2])))
			if !ok {
				stack[0] = api.EncodeI64(-1)
				return
			}
			stack[0] = api.EncodeI64(b.ResponseRead(ffi.Handle(stack[0]), dst))
		})

	// Header map.
	r.ctor("new_header_map", b.NewHeaderMap)
	r.destroy("header_map_destroy", b.HeaderMapDestroy)
	r.boolText2("header_map_insert", b.HeaderMapInsert)
	r.boolText2("header_map_append", b.HeaderMapAppend)
	r.boolText("header_map_remove", b.HeaderMapRemove)
	r.handleText("header_map_get", b.HeaderMapGet)
	r.handleText("header_map_get_all", b.HeaderMapGetAll)
	r.int32Text("header_map_values_len", b.HeaderMapValuesLen)
	r.def("header_map_get_at", types(i64, i32, i32, i32), types(i64),
		func(_ context.Context, mod api.Module, stack []uint64) {
			if stack[0] == 0 {
				stack[0] = uint64(b.HeaderMapGetAt(0, nil, uint32(stack[3])))
				return
			}
			key, ok := h.text("header_map_get_at", mod, stack[1], stack[2])
			if !ok {
				stack[0] = 0
				return
			}
			stack[0] = uint64(b.HeaderMapGetAt(ffi.Handle(stack[0]), key, uint32(stack[3])))
		})
	r.boolText("header_map_contains_key", b.HeaderMapContainsKey)
	r.int32Of("header_map_len", b.HeaderMapLen)
	r.int32Of("header_map_keys_len", b.HeaderMapKeysLen)
	r.int32Of("header_map_capacity", b.HeaderMapCapacity)
	r.handle("header_map_keys", b.HeaderMapKeys)
	r.handle("header_map_values", b.HeaderMapValues)
	r.boolOf("header_map_clear", b.HeaderMapClear)
	r.def("header_map_reserve", types(i64, i32), types(i32),
		func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = encodeBool(b.HeaderMapReserve(ffi.Handle(stack[0]), uint32(stack[1])))
		})

	// Proxy.
	r.fromText("proxy_http", b.ProxyHTTP)
	r.fromText("proxy_https", b.ProxyHTTPS)
	r.fromText("proxy_all", b.ProxyAll)
	r.destroy("proxy_destroy", b.ProxyDestroy)

	// Buffer. A guest cannot address host memory, so content is copied out.
	r.def("buffer_len", types(i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = b.BufferLen(ffi.Handle(stack[0]))
	})
	r.boolOf("buffer_is_text", b.BufferIsText)
	r.def("buffer_copy", types(i64, i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		stack[0] = h.copyOut("buffer_copy", mod, b.BufferBytes(ffi.Handle(stack[0])), stack[1], stack[2])
	})
	r.destroy("buffer_destroy", b.BufferDestroy)

	// Errors.
	r.ctor("take_last_error", b.TakeLastError)
	r.def("error_kind", types(i64), types(i32), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = api.EncodeI32(int32(b.ErrorKind(ffi.Handle(stack[0]))))
	})
	r.int32Of("error_code", b.ErrorCode)
	r.def("error_message_len", types(i64), types(i64), func(_ context.Context, _ api.Module, stack []uint64) {
		stack[0] = b.ErrorMessageLen(ffi.Handle(stack[0]))
	})
	r.def("error_message_copy", types(i64, i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		msg := b.ErrorMessageText(ffi.Handle(stack[0]))
		stack[0] = h.copyOut("error_message_copy", mod, []byte(msg), stack[1], stack[2])
	})
	r.destroy("error_clear", b.ErrorClear)
	r.destroy("error_destroy", b.ErrorDestroy)

	r.def("initialize_logging", types(i32, i32), types(i32), func(_ context.Context, mod api.Module, stack []uint64) {
		path, ok := h.text("initialize_logging", mod, stack[0], stack[1])
		if !ok {
			stack[0] = 0
			return
		}
		p := ""
		if path != nil {
			p = *path
		}
		if err := ffi.InitializeLogging(p); err != nil {
			h.errs.Set(err)
			stack[0] = 0
			return
		}
		SetLogger(ffi.BaseLogger().Named("wasmhost"))
		stack[0] = 1
	})

	return r.funcs
}

// copyOut writes up to cap bytes of data to guest memory at ptr and returns
// the number written, or -1 when the range is out of bounds.
func (h *Host) copyOut(op string, mod api.Module, data []byte, ptr, capacity uint64) uint64 {
	n := min(uint64(len(data)), uint64(uint32(capacity)), math.MaxInt32)
	if n == 0 {
		return 0
	}
	if !h.write(op, mod, uint64(uint32(ptr)), data[:n]) {
		return api.EncodeI32(-1)
	}
	return api.EncodeI32(int32(n))
}

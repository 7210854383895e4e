package live

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>resnap</title>
<style>
  body { margin: 0; background: #1e1e1e; display: flex; justify-content: center; }
  img { max-width: 100vw; max-height: 100vh; object-fit: contain; }
  #status { position: fixed; top: 8px; left: 8px; color: #888; font: 12px monospace; }
</style>
</head>
<body>
<div id="status">connecting</div>
<img id="screen" alt="tablet screen">
<script>
  const status = document.getElementById("status");
  const screen = document.getElementById("screen");
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  const ws = new WebSocket(proto + "//" + location.host + "/ws");
  ws.binaryType = "blob";
  ws.onopen = () => { status.textContent = "live"; };
  ws.onclose = () => { status.textContent = "disconnected"; };
  ws.onmessage = (ev) => {
    const url = URL.createObjectURL(ev.data);
    const old = screen.src;
    screen.src = url;
    if (old) URL.revokeObjectURL(old);
  };
</script>
</body>
</html>
`

package web

// Portfolio dashboard: venue totals from persisted summary rows plus live cycle status.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Exposure</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <style>
    :root { --bg:#ffffff; --ink:#111111; --ink-soft:#9c9c9c; --panel:#f6f6f6; --bad:#b3261e; }
    * { box-sizing:border-box; }
    body { margin:0; padding:2rem; background:var(--bg); color:var(--ink); font-family:"Space Mono", monospace; }
    h1 { font-size:1.1rem; letter-spacing:.08em; text-transform:uppercase; }
    .status { color:var(--ink-soft); font-size:.85rem; margin-bottom:1rem; }
    .status.bad { color:var(--bad); }
    .cards { display:flex; gap:1rem; flex-wrap:wrap; margin-bottom:1.5rem; }
    .card { background:var(--panel); padding:1rem 1.25rem; min-width:12rem; }
    .card .label { color:var(--ink-soft); font-size:.75rem; text-transform:uppercase; }
    .card .value { font-size:1.3rem; margin-top:.25rem; }
    canvas { max-width:960px; }
  </style>
</head>
<body>
  <h1>Portfolio exposure</h1>
  <div id="status" class="status">loading...</div>
  <div id="cards" class="cards"></div>
  <canvas id="chart" height="120"></canvas>
  <script>
    const venues = {};
    const history = {};
    const chart = new Chart(document.getElementById('chart'), {
      type: 'line',
      data: { labels: [], datasets: [] },
      options: { animation: false, scales: { x: { ticks: { maxTicksLimit: 12 } } } }
    });

    function fmt(v) {
      const n = Number(v);
      return isNaN(n) ? v : n.toLocaleString(undefined, { maximumFractionDigits: 2 });
    }

    function render() {
      const cards = document.getElementById('cards');
      cards.innerHTML = '';
      let total = 0;
      for (const [name, value] of Object.entries(venues)) {
        total += Number(value);
        cards.insertAdjacentHTML('beforeend',
          '<div class="card"><div class="label">' + name + '</div><div class="value">' + fmt(value) + '</div></div>');
      }
      cards.insertAdjacentHTML('afterbegin',
        '<div class="card"><div class="label">Total</div><div class="value">' + fmt(total) + '</div></div>');
    }

    function pushPoint(ts, name, value) {
      if (!history[name]) {
        history[name] = { label: name, data: [], tension: 0.2, pointRadius: 0 };
        chart.data.datasets.push(history[name]);
      }
      const label = new Date(ts).toLocaleString();
      if (chart.data.labels[chart.data.labels.length - 1] !== label) {
        chart.data.labels.push(label);
      }
      history[name].data.push(Number(value));
    }

    const source = new EventSource('/snapshots/stream');
    source.addEventListener('summary_total_balance', (e) => {
      const record = JSON.parse(e.data);
      const cols = record.columns;
      for (const row of record.rows) {
        const item = Object.fromEntries(cols.map((c, i) => [c, row[i]]));
        venues[item.exchange_name] = item.notional;
        pushPoint(item.created_date, item.exchange_name, item.notional);
      }
      render();
      chart.update();
    });
    source.addEventListener('cycle', (e) => {
      const event = JSON.parse(e.data);
      const status = document.getElementById('status');
      status.textContent = event.status + ' at ' + new Date(event.ts).toLocaleString() + (event.reason ? ' (' + event.reason + ')' : '');
      status.className = event.status === 'success' ? 'status' : 'status bad';
    });
    source.addEventListener('no_data', () => {
      document.getElementById('status').textContent = 'no snapshot yet';
    });
    source.onopen = () => {
      const status = document.getElementById('status');
      if (status.textContent === 'loading...') status.textContent = 'connected';
    };
  </script>
</body>
</html>
`
